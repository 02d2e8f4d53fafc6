package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Channel wraps a single channel of a sysfs PWM chip
// (/sys/class/pwm/<chip>/pwm<n>). Duty cycle and period are expressed
// in nanoseconds, matching the sysfs attribute units.
type Channel struct {
	chip     string
	channel  int
	basePath string

	// last values written, used to order period/duty writes
	periodNs int64
	dutyNs   int64
}

// New exports the channel if necessary and opens it. The channel is
// left disabled; the caller configures and enables it.
func New(chip string, channel int) (*Channel, error) {
	p := &Channel{
		chip:     chip,
		channel:  channel,
		basePath: fmt.Sprintf("/sys/class/pwm/%s/pwm%d", chip, channel),
		periodNs: -1,
		dutyNs:   -1,
	}

	if _, err := os.Stat(p.basePath); os.IsNotExist(err) {
		exportPath := filepath.Join("/sys/class/pwm", chip, "export")
		if err := os.WriteFile(exportPath, []byte(strconv.Itoa(channel)), 0644); err != nil {
			if !strings.Contains(err.Error(), "device or resource busy") {
				return nil, fmt.Errorf("failed to export PWM %s/pwm%d: %w", chip, channel, err)
			}
		}
	}

	if _, err := os.Stat(p.basePath); err != nil {
		return nil, fmt.Errorf("PWM channel %s/pwm%d unavailable: %w", chip, channel, err)
	}

	return p, nil
}

// Period reports the currently configured period in nanoseconds, or 0
// if it cannot be read.
func (p *Channel) Period() uint32 {
	data, err := os.ReadFile(filepath.Join(p.basePath, "period"))
	if err != nil {
		return 0
	}
	ns, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(ns)
}

// Configure sets the duty cycle and period. The kernel rejects a duty
// cycle larger than the current period, so the write order depends on
// whether the period is growing or shrinking.
func (p *Channel) Configure(dutyNs, periodNs uint32) error {
	duty := int64(dutyNs)
	period := int64(periodNs)

	if duty > period {
		return fmt.Errorf("duty cycle %dns exceeds period %dns", dutyNs, periodNs)
	}

	if period > p.periodNs {
		if err := p.writeSysfs("period", strconv.FormatInt(period, 10)); err != nil {
			return err
		}
		if err := p.writeSysfs("duty_cycle", strconv.FormatInt(duty, 10)); err != nil {
			return err
		}
	} else {
		if duty != p.dutyNs {
			if err := p.writeSysfs("duty_cycle", strconv.FormatInt(duty, 10)); err != nil {
				return err
			}
		}
		if period != p.periodNs {
			if err := p.writeSysfs("period", strconv.FormatInt(period, 10)); err != nil {
				return err
			}
		}
	}

	p.periodNs = period
	p.dutyNs = duty
	return nil
}

// Enable starts the PWM output.
func (p *Channel) Enable() error {
	return p.writeSysfs("enable", "1")
}

// Disable stops the PWM output.
func (p *Channel) Disable() error {
	return p.writeSysfs("enable", "0")
}

// SetInversed flips the output polarity.
func (p *Channel) SetInversed(inversed bool) error {
	polarity := "normal"
	if inversed {
		polarity = "inversed"
	}
	return p.writeSysfs("polarity", polarity)
}

// Close forces the output off and disables the channel.
func (p *Channel) Close() error {
	p.writeSysfs("duty_cycle", "0")
	return p.Disable()
}

func (p *Channel) writeSysfs(filename, value string) error {
	path := filepath.Join(p.basePath, filename)
	return os.WriteFile(path, []byte(value), 0644)
}
