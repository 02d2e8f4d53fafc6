package button

import (
	"context"
	"fmt"
	"log/syslog"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/tudordesign/rgbw-drv-go/internal/config"
)

// EventType represents the type of button gesture
type EventType string

const (
	Click       EventType = "click"
	DoubleClick EventType = "twice"
	LongPress   EventType = "press"
)

const (
	doubleClickWindow = 700 * time.Millisecond
	longPressTime     = 1800 * time.Millisecond
	releasePoll       = 50 * time.Millisecond
)

// Controller watches the control button line and resolves raw edge
// events into click / double-click / long-press gestures.
type Controller struct {
	line      *gpiocdev.Line
	pressChan chan EventType
	eventChan chan gpiocdev.LineEvent
	syslogger *syslog.Writer
}

// New requests the configured button line. A missing line
// configuration disables button monitoring rather than failing, so
// the daemon runs on boards without a button.
func New(cfg *config.Config) (*Controller, error) {
	ctrl := &Controller{
		pressChan: make(chan EventType, 10),
	}

	if cfg.LED.Syslog {
		syslogger, err := syslog.New(syslog.LOG_INFO, "rgbw-drv")
		if err != nil {
			return nil, err
		}
		ctrl.syslogger = syslogger
	}

	if cfg.Key.Line == "" {
		ctrl.logInfo("button monitoring disabled - no line configured")
		return ctrl, nil
	}

	chip := cfg.Key.Chip
	if chip == "" {
		chip = "gpiochip0"
	}
	var chipNum int
	if _, err := fmt.Sscanf(chip, "%d", &chipNum); err == nil {
		chip = "gpiochip" + chip
	}
	if !strings.HasPrefix(chip, "/dev/") {
		chip = "/dev/" + chip
	}

	var lineNum int
	if _, err := fmt.Sscanf(cfg.Key.Line, "%d", &lineNum); err != nil {
		ctrl.logInfo("invalid button line number: " + cfg.Key.Line)
		return ctrl, nil
	}

	ctrl.eventChan = make(chan gpiocdev.LineEvent, 10)
	handler := func(evt gpiocdev.LineEvent) {
		select {
		case ctrl.eventChan <- evt:
		default:
		}
	}

	l, err := gpiocdev.RequestLine(chip, lineNum,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		ctrl.logInfo("failed to request button line: " + err.Error())
		return ctrl, nil
	}
	ctrl.line = l

	// Let the pull-up settle, then discard any spurious edges.
	time.Sleep(100 * time.Millisecond)
	ctrl.drainEvents()
	ctrl.logInfo("button monitoring enabled on " + chip + " line " + cfg.Key.Line)
	return ctrl, nil
}

// Run resolves gestures until the context is cancelled.
func (c *Controller) Run(ctx context.Context) {
	if c.line == nil {
		<-ctx.Done()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			event := c.detectGesture(ctx)
			if event == "" {
				continue
			}
			select {
			case c.pressChan <- event:
				c.logInfo("button event: " + string(event))
			default:
				// channel full, drop
			}
		}
	}
}

// detectGesture waits for a press and classifies it. The button is
// active-low: a falling edge is a press, a rising edge a release.
func (c *Controller) detectGesture(ctx context.Context) EventType {
	var pressStart time.Time

	for {
		select {
		case <-ctx.Done():
			return ""
		case evt := <-c.eventChan:
			if evt.Type == gpiocdev.LineEventFallingEdge {
				pressStart = time.Now()
				goto waitForRelease
			}
		case <-time.After(200 * time.Millisecond):
			return ""
		}
	}

waitForRelease:
	for {
		select {
		case <-ctx.Done():
			return ""
		case evt := <-c.eventChan:
			if evt.Type == gpiocdev.LineEventRisingEdge {
				goto checkDoubleClick
			}
		case <-time.After(releasePoll):
			if time.Since(pressStart) >= longPressTime {
				for {
					select {
					case <-ctx.Done():
						return LongPress
					case evt := <-c.eventChan:
						if evt.Type == gpiocdev.LineEventRisingEdge {
							return LongPress
						}
					case <-time.After(releasePoll):
					}
				}
			}
		}
	}

checkDoubleClick:
	deadline := time.Now().Add(doubleClickWindow)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return Click
		case evt := <-c.eventChan:
			if evt.Type == gpiocdev.LineEventFallingEdge {
				for {
					select {
					case <-ctx.Done():
						return DoubleClick
					case evt := <-c.eventChan:
						if evt.Type == gpiocdev.LineEventRisingEdge {
							c.drainEvents()
							return DoubleClick
						}
					case <-time.After(releasePoll):
					}
				}
			}
		case <-time.After(time.Until(deadline)):
			return Click
		}
	}

	return Click
}

func (c *Controller) drainEvents() {
	for {
		select {
		case <-c.eventChan:
		default:
			return
		}
	}
}

// PressChan returns the channel delivering resolved gestures.
func (c *Controller) PressChan() <-chan EventType {
	return c.pressChan
}

func (c *Controller) logInfo(msg string) {
	if c.syslogger != nil {
		c.syslogger.Info(msg)
	}
}

// Close releases the button line.
func (c *Controller) Close() error {
	if c.line != nil {
		c.line.Close()
	}
	if c.syslogger != nil {
		return c.syslogger.Close()
	}
	return nil
}
