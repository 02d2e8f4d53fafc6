// Package device drives a multi-channel RGBW LED output. Each channel
// is backed either by a hardware PWM generator or by a GPIO line
// toggled from a software PWM timer. A single Device owns all channel
// and effect state; every public operation and timer callback
// serializes on the device mutex.
package device

import (
	"fmt"
	"sync"
)

// DefaultPeriodNs is used when no hardware PWM channel supplies a
// period: 7.65ms, ~130Hz.
const DefaultPeriodNs = 7650000

// ChannelSpec assigns a color to an acquired output handle. Exactly
// one of Generator or Line must be set.
type ChannelSpec struct {
	Color     Color
	Generator Generator
	Line      Line
}

// Options configures a Device.
type Options struct {
	// Channels lists the 3 or 4 assigned outputs. Red, green and blue
	// are required; white is optional.
	Channels []ChannelSpec

	// MaxBrightness bounds every channel's brightness. Ignored when
	// Levels is set, in which case the maximum is len(Levels)-1.
	MaxBrightness uint32

	// Levels optionally maps brightness to a raw duty value for
	// non-linear perceptual correction. Must be nondecreasing.
	Levels []uint32

	// PeriodNs fixes the PWM period. Zero means take the period of
	// the first hardware PWM channel, or DefaultPeriodNs if there is
	// none.
	PeriodNs uint32

	// Notify and NotifyAfter bracket every brightness update. Notify
	// may rewrite the value used for the duty computation (e.g. gamma
	// correction); the stored brightness is unchanged.
	Notify      func(brightness uint32) uint32
	NotifyAfter func(brightness uint32)
}

// Device aggregates the four channels and the effect state.
type Device struct {
	mu       sync.Mutex
	channels [numColors]channel
	periodNs uint32
	lthNs    uint32 // smallest observable pulse width: period / max

	notify      func(uint32) uint32
	notifyAfter func(uint32)

	active     Effect
	step       int
	saved      [numColors]uint32
	pulseColor Color
	effectTask *task
	effectGen  uint64 // bumped on every (de)activation; stale timers see a mismatch and stop

	closed bool
}

// New validates the channel assignment and builds the device. All
// channels start at brightness 0 and one full status update runs
// before returning. Handles are not released on error; the caller
// owns them until New succeeds.
func New(opts Options) (*Device, error) {
	n := len(opts.Channels)
	if n < 3 || n > int(numColors) {
		return nil, fmt.Errorf("%w: got %d", ErrChannelCount, n)
	}

	max := opts.MaxBrightness
	if len(opts.Levels) > 0 {
		max = uint32(len(opts.Levels) - 1)
		for i := 1; i < len(opts.Levels); i++ {
			if opts.Levels[i] < opts.Levels[i-1] {
				return nil, fmt.Errorf("%w: levels[%d]=%d < levels[%d]=%d",
					ErrLevelsOrder, i, opts.Levels[i], i-1, opts.Levels[i-1])
			}
		}
	}
	if max == 0 {
		return nil, ErrZeroMaxBrightness
	}

	d := &Device{
		notify:      opts.Notify,
		notifyAfter: opts.NotifyAfter,
		active:      EffectNone,
		pulseColor:  Color(-1),
	}

	for _, spec := range opts.Channels {
		if spec.Color < 0 || spec.Color >= numColors {
			return nil, fmt.Errorf("invalid channel color %d", spec.Color)
		}
		ch := &d.channels[spec.Color]
		if ch.kind != Unassigned {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColor, spec.Color)
		}
		switch {
		case spec.Generator != nil && spec.Line == nil:
			ch.kind = HardwarePWM
			ch.gen = spec.Generator
		case spec.Line != nil && spec.Generator == nil:
			ch.kind = SoftwarePWM
			ch.soft = &softPWM{line: spec.Line}
		default:
			return nil, fmt.Errorf("%w: %s", ErrBackend, spec.Color)
		}
		ch.max = max
		ch.levels = opts.Levels
	}

	for _, c := range []Color{Red, Green, Blue} {
		if d.channels[c].kind == Unassigned {
			return nil, fmt.Errorf("%w: missing %s", ErrMissingColor, c)
		}
	}

	// The period is shared by every channel and fixed for the life of
	// the device, taken from the first hardware PWM channel.
	d.periodNs = opts.PeriodNs
	if d.periodNs == 0 {
		for c := range d.channels {
			if d.channels[c].kind == HardwarePWM {
				d.periodNs = d.channels[c].gen.Period()
				break
			}
		}
	}
	if d.periodNs == 0 {
		d.periodNs = DefaultPeriodNs
	}
	d.lthNs = d.periodNs / max

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateStatusLocked(); err != nil {
		return nil, err
	}
	return d, nil
}

// SetBrightness stores a new brightness for one channel and pushes it
// to that channel's output only.
func (d *Device) SetBrightness(c Color, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if c < 0 || c >= numColors {
		return fmt.Errorf("invalid channel color %d", c)
	}
	ch := &d.channels[c]
	if ch.kind == Unassigned {
		return fmt.Errorf("%w: %s", ErrUnassignedChannel, c)
	}
	if value > ch.max {
		return fmt.Errorf("%w: %d > %d", ErrInvalidBrightness, value, ch.max)
	}

	ch.brightness = value
	return d.applyChannel(c)
}

// UpdateStatus recomputes and applies duty cycles for all channels.
func (d *Device) UpdateStatus() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.updateStatusLocked()
}

func (d *Device) updateStatusLocked() error {
	var first error
	for c := Color(0); c < numColors; c++ {
		if err := d.applyChannel(c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Brightness reports a channel's current brightness.
func (d *Device) Brightness(c Color) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c < 0 || c >= numColors {
		return 0
	}
	return d.channels[c].brightness
}

// MaxBrightness reports a channel's brightness bound, 0 if the
// channel is unassigned.
func (d *Device) MaxBrightness(c Color) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c < 0 || c >= numColors || d.channels[c].kind == Unassigned {
		return 0
	}
	return d.channels[c].max
}

// Kind reports what drives a channel.
func (d *Device) Kind(c Color) Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c < 0 || c >= numColors {
		return Unassigned
	}
	return d.channels[c].kind
}

// PeriodNs reports the shared PWM period.
func (d *Device) PeriodNs() uint32 {
	return d.periodNs
}

// Shutdown cancels all timers, forces every output off and releases
// the channel handles. The device is unusable afterwards.
func (d *Device) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.active = EffectNone
	effectTask := d.effectTask
	var timers []*task
	for c := range d.channels {
		if sp := d.channels[c].soft; sp != nil && sp.timer != nil {
			timers = append(timers, sp.timer)
		}
	}
	d.mu.Unlock()

	// Cancel outside the lock; pending callbacks take d.mu and bail
	// out on the closed flag.
	if effectTask != nil {
		effectTask.cancel()
	}
	for _, t := range timers {
		t.cancel()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.channels {
		ch := &d.channels[c]
		switch ch.kind {
		case HardwarePWM:
			ch.gen.Configure(0, d.periodNs)
			ch.gen.Disable()
			ch.gen.Close()
		case SoftwarePWM:
			ch.soft.line.SetValue(0)
			ch.soft.line.Close()
		}
		ch.brightness = 0
	}
}
