package button

import (
	"testing"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/tudordesign/rgbw-drv-go/internal/config"
)

func TestEventType(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		wantStr   string
	}{
		{"click event", Click, "click"},
		{"double click event", DoubleClick, "twice"},
		{"long press event", LongPress, "press"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.eventType) != tt.wantStr {
				t.Errorf("EventType = %v, want %v", tt.eventType, tt.wantStr)
			}
		})
	}
}

func TestNewWithoutLineConfigured(t *testing.T) {
	cfg := &config.Config{}

	ctrl, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ctrl.Close()

	if ctrl.line != nil {
		t.Error("line requested despite empty configuration")
	}
	if ctrl.pressChan == nil {
		t.Error("pressChan is nil")
	}
}

func TestPressChan(t *testing.T) {
	ctrl := &Controller{
		pressChan: make(chan EventType, 10),
	}

	ch := ctrl.PressChan()
	if ch == nil {
		t.Fatal("PressChan returned nil")
	}

	go func() {
		ctrl.pressChan <- LongPress
	}()

	select {
	case evt := <-ch:
		if evt != LongPress {
			t.Errorf("received event = %v, want %v", evt, LongPress)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDrainEvents(t *testing.T) {
	ctrl := &Controller{
		eventChan: make(chan gpiocdev.LineEvent, 10),
	}

	for i := 0; i < 5; i++ {
		ctrl.eventChan <- gpiocdev.LineEvent{Type: gpiocdev.LineEventRisingEdge}
	}
	ctrl.drainEvents()

	if n := len(ctrl.eventChan); n != 0 {
		t.Errorf("eventChan still holds %d events after drain", n)
	}
}
