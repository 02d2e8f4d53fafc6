package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tudordesign/rgbw-drv-go/internal/button"
	"github.com/tudordesign/rgbw-drv-go/internal/config"
	"github.com/tudordesign/rgbw-drv-go/internal/device"
	"github.com/tudordesign/rgbw-drv-go/internal/logger"
	"github.com/tudordesign/rgbw-drv-go/internal/oled"
	"github.com/tudordesign/rgbw-drv-go/internal/revision"
)

const configPath = "/etc/rgbw-drv.conf"

// effectCycle is the order the "cycle" button action walks through.
var effectCycle = []device.Effect{
	device.EffectNone,
	device.EffectPulse,
	device.EffectBlink,
	device.EffectHeartbeat,
	device.EffectRainbow,
}

func main() {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetVerbose(cfg.Verbose)

	if cfg.Revision.Enabled {
		rev, err := revision.New(cfg.Revision)
		if err != nil {
			logger.Errorf("Failed to read board revision: %v", err)
		} else {
			logger.Infof("Board revision %s (index %d)", rev.Revision(), rev.Index())
		}
	}

	dev, err := device.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open LED device: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	// a button gesture also advances the OLED to show the new state
	pageChan := make(chan struct{}, 1)

	// Start button controller
	btn, err := button.New(cfg)
	if err != nil {
		logger.Errorf("Failed to create button controller: %v", err)
	} else {
		defer btn.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			btn.Run(ctx)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event := <-btn.PressChan():
					action := getButtonAction(cfg, event)
					logger.Infof("Button %s -> %s", event, action)
					if err := applyAction(dev, action); err != nil {
						logger.Errorf("Button action %q failed: %v", action, err)
					}
					select {
					case pageChan <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	// Start OLED display if enabled
	if cfg.OLED.Enabled {
		oledCtrl, err := oled.New(cfg, dev)
		if err != nil {
			logger.Errorf("Failed to create OLED controller: %v", err)
		} else {
			defer oledCtrl.Close()
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := oledCtrl.Run(ctx, pageChan); err != nil {
					logger.Errorf("OLED controller error: %v", err)
				}
			}()
		}
	}

	// Wait for signal
	<-sigCh
	log.Println("Shutting down...")
	cancel()

	// Wait for goroutines with timeout
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("Shutdown timeout")
	}

	dev.Shutdown()
	log.Println("Shutdown complete")
}

func getButtonAction(cfg *config.Config, event button.EventType) string {
	switch event {
	case button.Click:
		return cfg.Key.Click
	case button.DoubleClick:
		return cfg.Key.Twice
	case button.LongPress:
		return cfg.Key.Press
	default:
		return "none"
	}
}

// applyAction maps a button action name onto the device. Besides the
// built-in "off" and "cycle" actions, any effect name toggles that
// effect on or off.
func applyAction(dev *device.Device, action string) error {
	switch action {
	case "", "none":
		return nil
	case "off":
		if active := dev.ActiveEffect(); active != device.EffectNone {
			if err := dev.DeactivateEffect(active); err != nil {
				return err
			}
		}
		return blackout(dev)
	case "cycle":
		return setEffect(dev, nextEffect(dev.ActiveEffect()))
	default:
		kind, err := device.ParseEffect(action)
		if err != nil {
			return err
		}
		if dev.ActiveEffect() == kind {
			return dev.DeactivateEffect(kind)
		}
		return setEffect(dev, kind)
	}
}

func setEffect(dev *device.Device, kind device.Effect) error {
	if kind == device.EffectNone {
		if active := dev.ActiveEffect(); active != device.EffectNone {
			return dev.DeactivateEffect(active)
		}
		return nil
	}
	return dev.ActivateEffect(kind, pulseTarget(dev))
}

// pulseTarget prefers the white channel when the board has one.
func pulseTarget(dev *device.Device) device.Color {
	if dev.Kind(device.White) != device.Unassigned {
		return device.White
	}
	return device.Red
}

func nextEffect(current device.Effect) device.Effect {
	for i, e := range effectCycle {
		if e == current {
			return effectCycle[(i+1)%len(effectCycle)]
		}
	}
	return device.EffectNone
}

func blackout(dev *device.Device) error {
	for _, c := range device.Colors() {
		if dev.Kind(c) == device.Unassigned {
			continue
		}
		if err := dev.SetBrightness(c, 0); err != nil {
			return err
		}
	}
	return nil
}
