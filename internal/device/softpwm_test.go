package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSoftTestDevice builds a device with a single GPIO-backed red
// channel without arming any timer, so tests can drive softTick
// directly.
func newSoftTestDevice(line Line, brightness, max, periodNs uint32) *Device {
	d := &Device{periodNs: periodNs, lthNs: periodNs / max}
	d.channels[Red] = channel{
		kind:       SoftwarePWM,
		soft:       &softPWM{line: line},
		brightness: brightness,
		max:        max,
	}
	return d
}

func TestSoftTickTogglePeriod(t *testing.T) {
	line := &fakeLine{}
	// brightness 30/100 over a 1ms period: 300us high, 700us low
	d := newSoftTestDevice(line, 30, 100, 1000000)

	high, again := d.softTick(Red)
	require.True(t, again)
	assert.Equal(t, 300*time.Microsecond, high)
	assert.Equal(t, 1, line.last())

	low, again := d.softTick(Red)
	require.True(t, again)
	assert.Equal(t, 700*time.Microsecond, low)
	assert.Equal(t, 0, line.last())

	// one high plus one low phase spans exactly one period
	assert.Equal(t, time.Duration(d.periodNs), high+low)
}

func TestSoftTickLatchesFullOn(t *testing.T) {
	line := &fakeLine{}
	d := newSoftTestDevice(line, 100, 100, 1000000)
	d.channels[Red].soft.running = true

	_, again := d.softTick(Red)
	assert.False(t, again)
	assert.Equal(t, 1, line.last())
	assert.False(t, d.channels[Red].soft.running)
}

func TestSoftTickLatchesOff(t *testing.T) {
	line := &fakeLine{}
	d := newSoftTestDevice(line, 0, 100, 1000000)
	d.channels[Red].soft.running = true

	_, again := d.softTick(Red)
	assert.False(t, again)
	assert.Equal(t, 0, line.last())
	assert.False(t, d.channels[Red].soft.running)
}

func TestSoftTickStopsWhenClosed(t *testing.T) {
	line := &fakeLine{}
	d := newSoftTestDevice(line, 30, 100, 1000000)
	d.closed = true

	_, again := d.softTick(Red)
	assert.False(t, again)
	assert.Empty(t, line.values)
}

func TestArmOnlyOnce(t *testing.T) {
	sp := &softPWM{line: &fakeLine{}, running: true}
	sp.arm(nil, Red)
	assert.Nil(t, sp.timer)
}

// A brightness change while the timer is stopped re-arms it and the
// output starts toggling again.
func TestSoftPWMReactivation(t *testing.T) {
	line := &fakeLine{}
	d, err := New(Options{
		MaxBrightness: 100,
		PeriodNs:      1000000,
		Channels: []ChannelSpec{
			{Color: Red, Line: line},
			{Color: Green, Generator: &fakeGenerator{}},
			{Color: Blue, Generator: &fakeGenerator{}},
		},
	})
	require.NoError(t, err)
	defer d.Shutdown()

	// the initial brightness-0 tick latches the line low and stops
	require.Eventually(t, func() bool {
		return line.last() == 0
	}, time.Second, time.Millisecond)

	require.NoError(t, d.SetBrightness(Red, 50))
	require.Eventually(t, func() bool {
		line.mu.Lock()
		defer line.mu.Unlock()
		return len(line.values) >= 3
	}, time.Second, time.Millisecond)
}
