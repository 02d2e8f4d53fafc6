package oled

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tudordesign/rgbw-drv-go/internal/config"
	"github.com/tudordesign/rgbw-drv-go/internal/device"
)

const (
	displayWidth  = 128
	displayHeight = 32
	sliderTime    = 10 * time.Second // page rotation interval
)

// Status is the slice of device state the display reports. Satisfied
// by *device.Device.
type Status interface {
	Brightness(device.Color) uint32
	MaxBrightness(device.Color) uint32
	ActiveEffect() device.Effect
	PeriodNs() uint32
}

// Page represents a displayable page
type Page interface {
	GetPageText() []TextItem
}

// TextItem represents a text element to be drawn
type TextItem struct {
	X    int
	Y    int
	Text string
}

type Controller struct {
	cfg       *config.Config
	status    Status
	dev       *SSD1306
	img       *image.Gray
	mu        sync.Mutex
	pageIndex int
	pages     []Page
	font      font.Face
}

func New(cfg *config.Config, status Status) (*Controller, error) {
	display, err := NewSSD1306(displayWidth, displayHeight)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:    cfg,
		status: status,
		dev:    display,
		img:    image.NewGray(image.Rect(0, 0, displayWidth, displayHeight)),
		font:   basicfont.Face7x13,
	}

	c.showWelcome()
	return c, nil
}

// Run rotates through the status pages until the context is
// cancelled. A value on buttonChan advances the page immediately.
func (c *Controller) Run(ctx context.Context, buttonChan <-chan struct{}) error {
	c.pages = []Page{
		&EffectPage{ctrl: c},
		&ChannelsPage{ctrl: c},
		&SystemPage{ctrl: c},
	}

	ticker := time.NewTicker(sliderTime)
	defer ticker.Stop()

	c.showPage()
	for {
		select {
		case <-ctx.Done():
			c.showGoodbye()
			return nil
		case <-ticker.C:
			c.nextPage()
		case <-buttonChan:
			c.nextPage()
		}
	}
}

func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearImage()
	c.displayToDevice()
	return c.dev.Close()
}

func (c *Controller) clearImage() {
	for y := 0; y < displayHeight; y++ {
		for x := 0; x < displayWidth; x++ {
			c.img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
}

func (c *Controller) drawText(x, y int, text string) {
	// font.Drawer positions at the baseline; convert from top-left by
	// adding the face ascent (11px for Face7x13).
	point := fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y) + fixed.I(11),
	}

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.White),
		Face: c.font,
		Dot:  point,
	}
	d.DrawString(text)
}

func (c *Controller) display() error {
	if c.cfg.OLED.Rotate {
		rotated := c.rotateImage180(c.img)
		return c.dev.Display(rotated)
	}
	return c.displayToDevice()
}

func (c *Controller) displayToDevice() error {
	return c.dev.Display(c.img)
}

func (c *Controller) rotateImage180(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	w, h := bounds.Dx(), bounds.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(w-1-x, h-1-y, src.At(x, y))
		}
	}
	return dst
}

func (c *Controller) showWelcome() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearImage()
	c.drawText(0, -2, "RGBW LED DRIVER")
	c.drawText(32, 16, "Loading...")
	c.display()
}

func (c *Controller) showGoodbye() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearImage()
	c.drawText(32, 8, "Good Bye ~")
	c.display()
	time.Sleep(time.Second)
	c.clearImage()
	c.display()
}

func (c *Controller) nextPage() {
	c.mu.Lock()
	c.pageIndex = (c.pageIndex + 1) % len(c.pages)
	c.mu.Unlock()
	c.showPage()
}

func (c *Controller) showPage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pages) == 0 {
		return
	}
	page := c.pages[c.pageIndex]

	c.clearImage()
	for _, item := range page.GetPageText() {
		c.drawText(item.X, item.Y, item.Text)
	}
	c.display()
}
