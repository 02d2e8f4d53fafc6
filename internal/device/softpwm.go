package device

import (
	"time"

	"github.com/tudordesign/rgbw-drv-go/internal/logger"
)

// armDelay is the delay before a freshly armed soft-PWM timer first
// fires, mirroring the one-microsecond kick used when a channel wakes
// from steady state.
const armDelay = time.Microsecond

// softPWM emulates a PWM signal on a digital output by toggling it
// from a self-rescheduling timer. Each GPIO-backed channel owns an
// independent instance; a steady full-on or full-off output lets the
// timer stop until the next brightness change re-arms it.
type softPWM struct {
	line    Line
	level   int
	running bool
	timer   *task
}

// arm starts the toggle timer if it is not already running. Caller
// holds d.mu.
func (sp *softPWM) arm(d *Device, c Color) {
	if sp.running {
		return
	}
	sp.running = true
	sp.timer = newTask(armDelay, func() (time.Duration, bool) {
		return d.softTick(c)
	})
}

// softTick is one firing of a channel's soft-PWM timer. At or above
// max brightness the output latches High and the timer stops; at zero
// it latches Low and stops. In between, the output flips and the timer
// re-arms for the pulse width (output High) or the remainder of the
// period (output Low).
func (d *Device) softTick(c Color) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := &d.channels[c]
	sp := ch.soft

	if d.closed {
		sp.running = false
		return 0, false
	}

	switch {
	case ch.brightness >= ch.max:
		sp.level = 1
		sp.line.SetValue(1)
		sp.running = false
		logger.Debugf("stopping %s soft PWM timer at full on", c)
		return 0, false
	case ch.brightness == 0:
		sp.level = 0
		sp.line.SetValue(0)
		sp.running = false
		logger.Debugf("stopping %s soft PWM timer at off", c)
		return 0, false
	default:
		sp.level = 1 - sp.level
		// pulse width for the configured brightness
		pulseNs := uint64(ch.brightness) * uint64(d.lthNs)
		nextNs := pulseNs
		if sp.level == 0 {
			nextNs = uint64(d.periodNs) - pulseNs
		}
		sp.line.SetValue(sp.level)
		return time.Duration(nextNs) * time.Nanosecond, true
	}
}
