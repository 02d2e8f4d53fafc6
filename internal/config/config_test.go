package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "test.conf")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	return configFile
}

func TestLoadConfig(t *testing.T) {
	configContent := `[led]
period_ns = 5000000
max_brightness = 100
syslog = true
verbose = true

[red]
pwm_chip = pwmchip0
pwm_channel = 0

[green]
pwm_chip = pwmchip0
pwm_channel = 1

[blue]
gpio_chip = gpiochip1
gpio_line = 17

[white]
gpio_line = 27

[key]
gpio_chip = gpiochip0
gpio_line = 4
click = cycle
twice = heartbeat
press = off

[oled]
enabled = true
rotate = true

[revision]
gpio_chip = gpiochip0
gpio_lines = 11, 12, 13, 14
lookup_table = A01|A02|B01|B02
`

	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LED.PeriodNs != 5000000 {
		t.Errorf("LED.PeriodNs = %v, want 5000000", cfg.LED.PeriodNs)
	}
	if cfg.LED.MaxBrightness != 100 {
		t.Errorf("LED.MaxBrightness = %v, want 100", cfg.LED.MaxBrightness)
	}
	if !cfg.LED.Syslog {
		t.Error("LED.Syslog = false, want true")
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}

	if len(cfg.LED.Channels) != 4 {
		t.Fatalf("got %d channels, want 4", len(cfg.LED.Channels))
	}
	red := cfg.LED.Channels["red"]
	if red.Backend != "pwm" || red.Chip != "pwmchip0" || red.Channel != 0 {
		t.Errorf("red channel = %+v, want pwm pwmchip0/0", red)
	}
	blue := cfg.LED.Channels["blue"]
	if blue.Backend != "gpio" || blue.Chip != "gpiochip1" || blue.Line != 17 {
		t.Errorf("blue channel = %+v, want gpio gpiochip1/17", blue)
	}
	white := cfg.LED.Channels["white"]
	if white.Chip != "gpiochip0" {
		t.Errorf("white chip = %v, want default gpiochip0", white.Chip)
	}

	if cfg.Key.Click != "cycle" {
		t.Errorf("Key.Click = %v, want cycle", cfg.Key.Click)
	}
	if cfg.Key.Twice != "heartbeat" {
		t.Errorf("Key.Twice = %v, want heartbeat", cfg.Key.Twice)
	}
	if cfg.Key.Line != "4" {
		t.Errorf("Key.Line = %v, want 4", cfg.Key.Line)
	}

	if !cfg.OLED.Enabled || !cfg.OLED.Rotate {
		t.Errorf("OLED = %+v, want enabled and rotated", cfg.OLED)
	}

	if !cfg.Revision.Enabled {
		t.Error("Revision.Enabled = false, want true")
	}
	if len(cfg.Revision.Lines) != 4 || cfg.Revision.Lines[2] != 13 {
		t.Errorf("Revision.Lines = %v, want [11 12 13 14]", cfg.Revision.Lines)
	}
	if len(cfg.Revision.Table) != 4 || cfg.Revision.Table[1] != "A02" {
		t.Errorf("Revision.Table = %v, want [A01 A02 B01 B02]", cfg.Revision.Table)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	configContent := `[red]
pwm_channel = 0

[green]
pwm_channel = 1

[blue]
pwm_channel = 2
`

	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LED.PeriodNs != 0 {
		t.Errorf("LED.PeriodNs = %v, want 0", cfg.LED.PeriodNs)
	}
	if cfg.LED.MaxBrightness != 255 {
		t.Errorf("LED.MaxBrightness = %v, want 255", cfg.LED.MaxBrightness)
	}
	if cfg.LED.Levels != nil {
		t.Errorf("LED.Levels = %v, want nil", cfg.LED.Levels)
	}
	if cfg.Key.Click != "cycle" || cfg.Key.Twice != "blink" || cfg.Key.Press != "off" {
		t.Errorf("Key defaults = %+v", cfg.Key)
	}
	if cfg.OLED.Enabled {
		t.Error("OLED.Enabled = true, want false")
	}
	if cfg.Revision.Enabled {
		t.Error("Revision.Enabled = true, want false")
	}
	if cfg.LED.Channels["red"].Chip != "pwmchip0" {
		t.Errorf("red chip = %v, want default pwmchip0", cfg.LED.Channels["red"].Chip)
	}
}

func TestLoadConfigBrightnessLevels(t *testing.T) {
	configContent := `[led]
brightness_levels = 0, 16, 64, 128, 255

[red]
pwm_channel = 0

[green]
pwm_channel = 1

[blue]
pwm_channel = 2
`

	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []uint32{0, 16, 64, 128, 255}
	if len(cfg.LED.Levels) != len(want) {
		t.Fatalf("got %d levels, want %d", len(cfg.LED.Levels), len(want))
	}
	for i, v := range want {
		if cfg.LED.Levels[i] != v {
			t.Errorf("Levels[%d] = %v, want %v", i, cfg.LED.Levels[i], v)
		}
	}
	if cfg.LED.MaxBrightness != 4 {
		t.Errorf("MaxBrightness = %v, want 4 from levels table", cfg.LED.MaxBrightness)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing required color",
			content: `[red]
pwm_channel = 0

[green]
pwm_channel = 1
`,
			wantErr: "not enough colors",
		},
		{
			name: "blue undefined with white present",
			content: `[red]
pwm_channel = 0

[green]
pwm_channel = 1

[white]
gpio_line = 27
`,
			wantErr: "required color blue",
		},
		{
			name: "both backends on one channel",
			content: `[red]
pwm_channel = 0
gpio_line = 17

[green]
pwm_channel = 1

[blue]
pwm_channel = 2
`,
			wantErr: "both pwm and gpio",
		},
		{
			name: "gpio channel without line",
			content: `[red]
gpio_chip = gpiochip0

[green]
pwm_channel = 1

[blue]
pwm_channel = 2
`,
			wantErr: "gpio_line is required",
		},
		{
			name: "bad brightness level",
			content: `[led]
brightness_levels = 0, ten, 255

[red]
pwm_channel = 0

[green]
pwm_channel = 1

[blue]
pwm_channel = 2
`,
			wantErr: "invalid brightness level",
		},
		{
			name: "wrong revision line count",
			content: `[red]
pwm_channel = 0

[green]
pwm_channel = 1

[blue]
pwm_channel = 2

[revision]
gpio_lines = 11, 12
lookup_table = A01|A02
`,
			wantErr: "four gpio lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Fatal("Load succeeded on missing file")
	}
}
