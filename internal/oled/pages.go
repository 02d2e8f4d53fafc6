package oled

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tudordesign/rgbw-drv-go/internal/device"
)

// EffectPage - active effect and PWM period
type EffectPage struct {
	ctrl *Controller
}

func (p *EffectPage) GetPageText() []TextItem {
	periodNs := p.ctrl.status.PeriodNs()
	freq := float64(0)
	if periodNs > 0 {
		freq = 1e9 / float64(periodNs)
	}
	return []TextItem{
		{X: 0, Y: -2, Text: "RGBW LED DRIVER"},
		{X: 0, Y: 10, Text: "Effect: " + p.ctrl.status.ActiveEffect().String()},
		{X: 0, Y: 21, Text: fmt.Sprintf("PWM: %.0f Hz", freq)},
	}
}

// ChannelsPage - per-channel brightness
type ChannelsPage struct {
	ctrl *Controller
}

func (p *ChannelsPage) GetPageText() []TextItem {
	s := p.ctrl.status
	return []TextItem{
		{X: 0, Y: -2, Text: fmt.Sprintf("R:%3d  G:%3d", s.Brightness(device.Red), s.Brightness(device.Green))},
		{X: 0, Y: 10, Text: fmt.Sprintf("B:%3d  W:%3d", s.Brightness(device.Blue), s.Brightness(device.White))},
		{X: 0, Y: 21, Text: fmt.Sprintf("max: %d", s.MaxBrightness(device.Red))},
	}
}

// SystemPage - uptime, CPU temperature, IP address
type SystemPage struct {
	ctrl *Controller
}

func (p *SystemPage) GetPageText() []TextItem {
	return []TextItem{
		{X: 0, Y: -2, Text: getUptime()},
		{X: 0, Y: 10, Text: getCPUTemp()},
		{X: 0, Y: 21, Text: getIPAddress()},
	}
}

func getUptime() string {
	out, err := exec.Command("sh", "-c", "uptime | sed 's/.*up \\([^,]*\\),.*/\\1/'").Output()
	if err != nil {
		return "Up: N/A"
	}
	return "Up: " + strings.TrimSpace(string(out))
}

func getCPUTemp() string {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return "CPU: N/A"
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return "CPU: N/A"
	}
	return fmt.Sprintf("CPU: %.1fC", temp/1000.0)
}

func getIPAddress() string {
	out, err := exec.Command("hostname", "-I").Output()
	if err != nil {
		return "IP: N/A"
	}
	fields := strings.Fields(string(out))
	if len(fields) > 0 {
		return "IP: " + fields[0]
	}
	return "IP: N/A"
}
