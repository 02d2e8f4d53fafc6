package device

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/tudordesign/rgbw-drv-go/internal/config"
	"github.com/tudordesign/rgbw-drv-go/internal/logger"
	"github.com/tudordesign/rgbw-drv-go/pkg/pwm"
)

// Hardware acquisition, swappable in tests.
var (
	requestPWM = func(chip string, channel int) (Generator, error) {
		return pwm.New(chip, channel)
	}
	requestGPIO = func(chip string, line int) (Line, error) {
		return gpiocdev.RequestLine(chip, line, gpiocdev.AsOutput(0))
	}
)

// ParseColor resolves a channel color by its configuration name.
func ParseColor(name string) (Color, error) {
	for c := Color(0); c < numColors; c++ {
		if colorNames[c] == name {
			return c, nil
		}
	}
	return Color(-1), fmt.Errorf("unknown color %q", name)
}

// Open acquires the hardware handles named by the configuration and
// builds the device. On any failure every already-acquired handle is
// released before returning.
func Open(cfg *config.Config) (*Device, error) {
	var specs []ChannelSpec
	release := func() {
		for _, s := range specs {
			if s.Generator != nil {
				s.Generator.Close()
			}
			if s.Line != nil {
				s.Line.Close()
			}
		}
	}

	for _, name := range config.ColorNames {
		cc, ok := cfg.LED.Channels[name]
		if !ok {
			continue
		}
		color, err := ParseColor(name)
		if err != nil {
			release()
			return nil, err
		}

		switch cc.Backend {
		case "pwm":
			h, err := requestPWM(cc.Chip, cc.Channel)
			if err != nil {
				release()
				return nil, fmt.Errorf("unable to request PWM for color %s: %w", name, err)
			}
			specs = append(specs, ChannelSpec{Color: color, Generator: h})
			logger.Debugf("got pwm for color %s", name)
		case "gpio":
			l, err := requestGPIO(cc.Chip, cc.Line)
			if err != nil {
				release()
				return nil, fmt.Errorf("unable to request GPIO for color %s: %w", name, err)
			}
			specs = append(specs, ChannelSpec{Color: color, Line: l})
			logger.Debugf("created soft pwm for color %s", name)
		default:
			release()
			return nil, fmt.Errorf("channel %s: unknown backend %q", name, cc.Backend)
		}
	}

	d, err := New(Options{
		Channels:      specs,
		MaxBrightness: cfg.LED.MaxBrightness,
		Levels:        cfg.LED.Levels,
		PeriodNs:      cfg.LED.PeriodNs,
	})
	if err != nil {
		release()
		return nil, err
	}
	return d, nil
}
