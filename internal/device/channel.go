package device

import "errors"

// Color indexes the four output channels.
type Color int

const (
	Red Color = iota
	Green
	Blue
	White
	numColors
)

var colorNames = [numColors]string{"red", "green", "blue", "white"}

func (c Color) String() string {
	if c < 0 || c >= numColors {
		return "invalid"
	}
	return colorNames[c]
}

// Colors lists all channel colors in index order.
func Colors() []Color {
	return []Color{Red, Green, Blue, White}
}

// Kind tells what drives a channel.
type Kind int

const (
	Unassigned Kind = iota
	HardwarePWM
	SoftwarePWM
)

func (k Kind) String() string {
	switch k {
	case HardwarePWM:
		return "pwm"
	case SoftwarePWM:
		return "gpio"
	default:
		return "unassigned"
	}
}

// Generator is a hardware PWM channel. Implemented by pkg/pwm for
// sysfs chips.
type Generator interface {
	Configure(dutyNs, periodNs uint32) error
	Enable() error
	Disable() error
	Period() uint32
	Close() error
}

// Line is an output-capable digital pin. *gpiocdev.Line satisfies it.
type Line interface {
	SetValue(value int) error
	Close() error
}

var (
	ErrZeroMaxBrightness = errors.New("max brightness must be nonzero")
	ErrChannelCount      = errors.New("between 3 and 4 channels must be assigned")
	ErrMissingColor      = errors.New("red, green and blue channels are required")
	ErrDuplicateColor    = errors.New("color assigned more than once")
	ErrBackend           = errors.New("channel needs exactly one of a PWM generator or a GPIO line")
	ErrLevelsOrder       = errors.New("brightness levels must be nondecreasing")
	ErrUnassignedChannel = errors.New("channel is not assigned")
	ErrInvalidBrightness = errors.New("brightness exceeds channel maximum")
	ErrInvalidEffect     = errors.New("unknown effect")
	ErrClosed            = errors.New("device is shut down")
)

// channel is one color output. Exactly one of gen/soft is set unless
// the channel is unassigned.
type channel struct {
	kind       Kind
	gen        Generator
	soft       *softPWM
	brightness uint32
	max        uint32
	levels     []uint32
}

// dutyCycle maps a brightness to the pulse width in nanoseconds. The
// caller has already handled brightness 0 (output disabled). With a
// levels table the brightness indexes the table to get the raw duty
// value; otherwise the brightness is the raw value.
func (d *Device) dutyCycle(ch *channel, brightness uint32) uint32 {
	raw := uint64(brightness)
	if ch.levels != nil {
		raw = uint64(ch.levels[brightness])
	}
	span := uint64(d.periodNs - d.lthNs)
	return d.lthNs + uint32(raw*span/uint64(ch.max))
}

// applyChannel pushes the channel's brightness to its backing output:
// hardware PWM channels are reconfigured directly, GPIO channels have
// their soft-PWM timer armed. Caller holds d.mu.
func (d *Device) applyChannel(c Color) error {
	ch := &d.channels[c]
	if ch.kind == Unassigned {
		return nil
	}

	brightness := ch.brightness
	if d.notify != nil {
		brightness = d.notify(brightness)
	}

	var err error
	switch ch.kind {
	case HardwarePWM:
		if brightness == 0 {
			err = ch.gen.Configure(0, d.periodNs)
			if derr := ch.gen.Disable(); err == nil {
				err = derr
			}
		} else {
			err = ch.gen.Configure(d.dutyCycle(ch, brightness), d.periodNs)
			if eerr := ch.gen.Enable(); err == nil {
				err = eerr
			}
		}
	case SoftwarePWM:
		ch.soft.arm(d, c)
	}

	if d.notifyAfter != nil {
		d.notifyAfter(brightness)
	}

	return err
}
