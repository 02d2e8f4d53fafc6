package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// ColorNames lists the channel section names in R-G-B-W order. Red,
// green and blue must be assigned; white is optional.
var ColorNames = []string{"red", "green", "blue", "white"}

type Config struct {
	LED      LEDConfig
	Key      KeyConfig
	OLED     OLEDConfig
	Revision RevisionConfig
	Verbose  bool
}

// ChannelConfig describes how one color is driven: a sysfs hardware
// PWM channel or a GPIO line toggled by the software PWM engine.
type ChannelConfig struct {
	Backend string // "pwm" or "gpio"
	Chip    string // pwmchipN or gpiochipN
	Channel int    // pwm channel number
	Line    int    // gpio line offset
}

type LEDConfig struct {
	// PeriodNs fixes the shared PWM period. 0 means take it from the
	// first hardware PWM channel, falling back to ~7.65ms.
	PeriodNs      uint32
	MaxBrightness uint32
	// Levels optionally maps brightness to raw duty values. When set,
	// max brightness is len(Levels)-1.
	Levels   []uint32
	Channels map[string]ChannelConfig
	Syslog   bool
}

// KeyConfig maps button gestures to actions: "cycle", "off" or an
// effect name (pulse, blink, heartbeat, rainbow).
type KeyConfig struct {
	Chip  string
	Line  string
	Click string
	Twice string
	Press string
}

type OLEDConfig struct {
	Enabled bool
	Rotate  bool
}

// RevisionConfig describes the 4-bit hardware/assembly revision
// straps: four GPIO input lines composed into an index into Table.
type RevisionConfig struct {
	Enabled bool
	Chip    string
	Lines   []int
	Table   []string
}

func Load(path string) (*Config, error) {
	cfg := &Config{}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	ledSec := iniFile.Section("led")
	cfg.LED.PeriodNs = uint32(ledSec.Key("period_ns").MustUint(0))
	cfg.LED.MaxBrightness = uint32(ledSec.Key("max_brightness").MustUint(255))
	cfg.LED.Syslog = ledSec.Key("syslog").MustBool(false)
	cfg.Verbose = ledSec.Key("verbose").MustBool(false)

	if levels := ledSec.Key("brightness_levels").String(); levels != "" {
		for _, field := range strings.Split(levels, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid brightness level %q: %w", field, err)
			}
			cfg.LED.Levels = append(cfg.LED.Levels, uint32(v))
		}
		cfg.LED.MaxBrightness = uint32(len(cfg.LED.Levels) - 1)
	}

	cfg.LED.Channels = make(map[string]ChannelConfig)
	for _, name := range ColorNames {
		if !iniFile.HasSection(name) {
			continue
		}
		ch, err := loadChannel(iniFile.Section(name))
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", name, err)
		}
		cfg.LED.Channels[name] = ch
	}

	if err := validateChannels(cfg.LED.Channels); err != nil {
		return nil, err
	}

	keySec := iniFile.Section("key")
	cfg.Key.Chip = keySec.Key("gpio_chip").MustString(os.Getenv("BUTTON_CHIP"))
	cfg.Key.Line = keySec.Key("gpio_line").MustString(os.Getenv("BUTTON_LINE"))
	cfg.Key.Click = keySec.Key("click").MustString("cycle")
	cfg.Key.Twice = keySec.Key("twice").MustString("blink")
	cfg.Key.Press = keySec.Key("press").MustString("off")

	oledSec := iniFile.Section("oled")
	cfg.OLED.Enabled = oledSec.Key("enabled").MustBool(false)
	cfg.OLED.Rotate = oledSec.Key("rotate").MustBool(false)

	if iniFile.HasSection("revision") {
		revSec := iniFile.Section("revision")
		cfg.Revision.Chip = revSec.Key("gpio_chip").MustString("gpiochip0")
		for _, field := range revSec.Key("gpio_lines").Strings(",") {
			line, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("invalid revision gpio line %q: %w", field, err)
			}
			cfg.Revision.Lines = append(cfg.Revision.Lines, line)
		}
		cfg.Revision.Table = revSec.Key("lookup_table").Strings("|")
		if len(cfg.Revision.Lines) != 4 {
			return nil, fmt.Errorf("four gpio lines required for the revision index, got %d", len(cfg.Revision.Lines))
		}
		if len(cfg.Revision.Table) < 1 {
			return nil, fmt.Errorf("revision lookup table needs at least one entry")
		}
		cfg.Revision.Enabled = true
	}

	return cfg, nil
}

func loadChannel(sec *ini.Section) (ChannelConfig, error) {
	hasPWM := sec.HasKey("pwm_chip") || sec.HasKey("pwm_channel")
	hasGPIO := sec.HasKey("gpio_chip") || sec.HasKey("gpio_line")

	switch {
	case hasPWM && hasGPIO:
		return ChannelConfig{}, fmt.Errorf("both pwm and gpio backing defined")
	case hasPWM:
		chip := sec.Key("pwm_chip").MustString(envDefault("PWM_CHIP", "pwmchip0"))
		return ChannelConfig{
			Backend: "pwm",
			Chip:    chip,
			Channel: sec.Key("pwm_channel").MustInt(0),
		}, nil
	case hasGPIO:
		chip := sec.Key("gpio_chip").MustString(envDefault("GPIO_CHIP", "gpiochip0"))
		if !sec.HasKey("gpio_line") {
			return ChannelConfig{}, fmt.Errorf("gpio_line is required for a gpio-backed channel")
		}
		return ChannelConfig{
			Backend: "gpio",
			Chip:    chip,
			Line:    sec.Key("gpio_line").MustInt(0),
		}, nil
	default:
		return ChannelConfig{}, fmt.Errorf("no pwm or gpio backing defined")
	}
}

func validateChannels(channels map[string]ChannelConfig) error {
	if len(channels) < 3 {
		return fmt.Errorf("not enough colors defined with pwm and gpio: got %d, need at least 3", len(channels))
	}
	for _, name := range []string{"red", "green", "blue"} {
		if _, ok := channels[name]; !ok {
			return fmt.Errorf("required color %s is not defined", name)
		}
	}
	return nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
