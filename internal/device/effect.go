package device

import (
	"fmt"
	"time"
)

// Effect identifies one of the animated lighting effects. At most one
// effect runs at a time; activating a new one deactivates the current
// one first.
type Effect int

const (
	EffectNone Effect = iota
	EffectPulse
	EffectBlink
	EffectHeartbeat
	EffectRainbow
)

var effectNames = map[Effect]string{
	EffectNone:      "none",
	EffectPulse:     "pulse",
	EffectBlink:     "blink",
	EffectHeartbeat: "heartbeat",
	EffectRainbow:   "rainbow",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return "invalid"
}

// ParseEffect resolves an effect name as used in configuration files.
func ParseEffect(name string) (Effect, error) {
	for e, n := range effectNames {
		if n == name {
			return e, nil
		}
	}
	return EffectNone, fmt.Errorf("%w: %q", ErrInvalidEffect, name)
}

const (
	pulseTickInterval      = 10 * time.Millisecond
	blinkTickInterval      = 500 * time.Millisecond
	heartbeatShortInterval = 100 * time.Millisecond
	heartbeatLongInterval  = 700 * time.Millisecond
)

// pulseTable is one full period of the breathing curve
// [e^sin(x*pi/2) - 1/e] * [255/(e - 1/e)], sampled into a lookup table
// so the tick callback stays integer-only. One period must run from
// zero to the value before the next zero for a natural feel.
var pulseTable = [...]uint32{
	0, 1, 2, 3, 4, 6, 8, 10, 13, 16, 20,
	24, 28, 34, 39, 45, 52, 60, 68, 77,
	86, 97, 107, 119, 130, 143, 155, 167,
	180, 192, 203, 214, 224, 233, 240, 246,
	251, 254, 254, 254, 251, 246, 240, 233,
	224, 214, 203, 192, 180, 167, 155, 143,
	130, 119, 107, 97, 86, 77, 68, 60, 52,
	45, 39, 34, 28, 24, 20, 16, 13, 10, 8,
	6, 4, 3, 2, 1, 0, 0, 0, 0,
}

// ActivateEffect snapshots the current per-channel brightness and
// starts the effect's timer. target selects the channel the pulse
// effect breathes on and is ignored by the other effects. If another
// effect is active it is deactivated (and the snapshot it took
// restored) first, so two timers never race on brightness.
func (d *Device) ActivateEffect(kind Effect, target Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	switch kind {
	case EffectPulse, EffectBlink, EffectHeartbeat, EffectRainbow:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidEffect, kind)
	}

	if kind == EffectPulse {
		if target < 0 || target >= numColors {
			return fmt.Errorf("invalid pulse channel %d", target)
		}
		if d.channels[target].kind == Unassigned {
			return fmt.Errorf("%w: %s", ErrUnassignedChannel, target)
		}
	}

	if d.active == kind && (kind != EffectPulse || d.pulseColor == target) {
		return nil
	}
	if d.active != EffectNone {
		d.deactivateLocked()
	}

	for c := range d.channels {
		d.saved[c] = d.channels[c].brightness
	}
	d.active = kind
	d.step = 0

	first := pulseTickInterval
	switch kind {
	case EffectPulse:
		d.pulseColor = target
	case EffectBlink:
		first = blinkTickInterval
	case EffectHeartbeat:
		first = heartbeatShortInterval
	case EffectRainbow:
		// seed the color wheel: red at full, green about to rise
		d.channels[Red].brightness = d.channels[Red].max
		d.channels[Green].brightness = 0
		d.channels[Blue].brightness = 0
		d.updateStatusLocked()
	}

	d.effectGen++
	gen := d.effectGen
	d.effectTask = newTask(first, func() (time.Duration, bool) {
		return d.effectTick(kind, gen)
	})
	return nil
}

// DeactivateEffect stops the given effect if it is the active one,
// restores the snapshot taken at activation and pushes a full status
// update. Deactivating an effect that is not active is a no-op.
func (d *Device) DeactivateEffect(kind Effect) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.active != kind || kind == EffectNone {
		return nil
	}
	return d.deactivateLocked()
}

// ActiveEffect reports the currently running effect, EffectNone when
// idle.
func (d *Device) ActiveEffect() Effect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// PulseColor reports the channel targeted by the pulse effect.
func (d *Device) PulseColor() Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulseColor
}

// deactivateLocked clears the active effect before restoring state:
// the effect's timer observes the cleared slot on its next firing and
// stops without rescheduling. Caller holds d.mu.
func (d *Device) deactivateLocked() error {
	d.active = EffectNone
	d.effectTask = nil
	d.effectGen++
	for c := range d.channels {
		if d.channels[c].kind != Unassigned {
			d.channels[c].brightness = d.saved[c]
		}
	}
	return d.updateStatusLocked()
}

// effectTick is one firing of an effect timer. A tick whose effect is
// no longer active stops the timer; that check is the sole
// cancellation mechanism, so callers see at most one extra tick of
// inertia after deactivation.
func (d *Device) effectTick(kind Effect, gen uint64) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.active != kind || d.effectGen != gen {
		return 0, false
	}

	switch kind {
	case EffectPulse:
		return d.pulseStep()
	case EffectBlink:
		return d.blinkStep()
	case EffectHeartbeat:
		return d.heartbeatStep()
	case EffectRainbow:
		return d.rainbowStep()
	}
	return 0, false
}

// pulseStep advances the breathing curve on the targeted channel only.
func (d *Device) pulseStep() (time.Duration, bool) {
	if d.step >= len(pulseTable) {
		d.step = 0
	}
	ch := &d.channels[d.pulseColor]
	ch.brightness = min(pulseTable[d.step], ch.max)
	d.step++
	d.applyChannel(d.pulseColor)
	return pulseTickInterval, true
}

// blinkStep alternates all channels between off and the snapshot.
func (d *Device) blinkStep() (time.Duration, bool) {
	for c := range d.channels {
		if d.channels[c].kind == Unassigned {
			continue
		}
		if d.step == 0 {
			d.channels[c].brightness = 0
		} else {
			d.channels[c].brightness = d.saved[c]
		}
	}
	d.step = 1 - d.step
	d.updateStatusLocked()
	return blinkTickInterval, true
}

// heartbeatStep runs the 4-step double-beat cycle: snapshot, off,
// snapshot, off, with the long diastolic pause after the fourth step.
func (d *Device) heartbeatStep() (time.Duration, bool) {
	step := d.step
	for c := range d.channels {
		if d.channels[c].kind == Unassigned {
			continue
		}
		if step%2 == 1 {
			d.channels[c].brightness = 0
		} else {
			d.channels[c].brightness = min(d.saved[c], d.channels[c].max)
		}
	}
	if step < 3 {
		d.step = step + 1
	} else {
		d.step = 0
	}
	d.updateStatusLocked()
	if step < 3 {
		return heartbeatShortInterval, true
	}
	return heartbeatLongInterval, true
}

// rainbowStep walks the 6-state color wheel, moving exactly one of
// red/green/blue per tick while the other two sit at their extremes.
// White is not driven.
func (d *Device) rainbowStep() (time.Duration, bool) {
	r := &d.channels[Red]
	g := &d.channels[Green]
	b := &d.channels[Blue]

	// SetBrightness may have moved a channel while the wheel was
	// running; the moving channel saturates at its bounds instead of
	// stepping past them.
	switch d.step {
	case 0: // red full, green rising
		if g.brightness < g.max {
			g.brightness++
		}
		if g.brightness >= g.max {
			d.step = 1
		}
	case 1: // green full, red falling
		if r.brightness > 0 {
			r.brightness--
		}
		if r.brightness < 1 {
			d.step = 2
		}
	case 2: // green full, blue rising
		if b.brightness < b.max {
			b.brightness++
		}
		if b.brightness >= b.max {
			d.step = 3
		}
	case 3: // blue full, green falling
		if g.brightness > 0 {
			g.brightness--
		}
		if g.brightness < 1 {
			d.step = 4
		}
	case 4: // blue full, red rising
		if r.brightness < r.max {
			r.brightness++
		}
		if r.brightness >= r.max {
			d.step = 5
		}
	case 5: // red full, blue falling
		if b.brightness > 0 {
			b.brightness--
		}
		if b.brightness < 1 {
			d.step = 0
		}
	default:
		d.step = 0
		r.brightness = r.max
		g.brightness = 0
		b.brightness = 0
	}

	d.updateStatusLocked()
	return pulseTickInterval, true
}
