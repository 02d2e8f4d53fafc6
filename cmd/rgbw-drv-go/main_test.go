package main

import (
	"testing"

	"github.com/tudordesign/rgbw-drv-go/internal/button"
	"github.com/tudordesign/rgbw-drv-go/internal/config"
	"github.com/tudordesign/rgbw-drv-go/internal/device"
)

// These tests only exercise the pure action mapping helpers and run
// without any hardware attached.

func TestGetButtonAction(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *config.Config
		event button.EventType
		want  string
	}{
		{
			name: "click event returns click action",
			cfg: &config.Config{
				Key: config.KeyConfig{
					Click: "cycle",
					Twice: "blink",
					Press: "off",
				},
			},
			event: button.Click,
			want:  "cycle",
		},
		{
			name: "double click event returns twice action",
			cfg: &config.Config{
				Key: config.KeyConfig{
					Click: "cycle",
					Twice: "blink",
					Press: "off",
				},
			},
			event: button.DoubleClick,
			want:  "blink",
		},
		{
			name: "long press event returns press action",
			cfg: &config.Config{
				Key: config.KeyConfig{
					Click: "cycle",
					Twice: "blink",
					Press: "off",
				},
			},
			event: button.LongPress,
			want:  "off",
		},
		{
			name: "unknown event returns none",
			cfg: &config.Config{
				Key: config.KeyConfig{
					Click: "cycle",
					Twice: "blink",
					Press: "off",
				},
			},
			event: button.EventType("unknown"),
			want:  "none",
		},
		{
			name: "effect name actions pass through",
			cfg: &config.Config{
				Key: config.KeyConfig{
					Click: "heartbeat",
					Twice: "rainbow",
					Press: "pulse",
				},
			},
			event: button.DoubleClick,
			want:  "rainbow",
		},
		{
			name: "empty action returns empty string",
			cfg: &config.Config{
				Key: config.KeyConfig{},
			},
			event: button.Click,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := getButtonAction(tt.cfg, tt.event)
			if got != tt.want {
				t.Errorf("getButtonAction() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextEffect(t *testing.T) {
	tests := []struct {
		current device.Effect
		want    device.Effect
	}{
		{device.EffectNone, device.EffectPulse},
		{device.EffectPulse, device.EffectBlink},
		{device.EffectBlink, device.EffectHeartbeat},
		{device.EffectHeartbeat, device.EffectRainbow},
		{device.EffectRainbow, device.EffectNone},
	}

	for _, tt := range tests {
		t.Run(tt.current.String(), func(t *testing.T) {
			if got := nextEffect(tt.current); got != tt.want {
				t.Errorf("nextEffect(%v) = %v, want %v", tt.current, got, tt.want)
			}
		})
	}
}

func TestNextEffectCycleCoversAllEffects(t *testing.T) {
	seen := map[device.Effect]bool{}
	current := device.EffectNone
	for i := 0; i < len(effectCycle); i++ {
		current = nextEffect(current)
		if seen[current] {
			t.Fatalf("effect %v visited twice in one cycle", current)
		}
		seen[current] = true
	}
	if current != device.EffectNone {
		t.Errorf("cycle did not return to none, ended on %v", current)
	}
}
