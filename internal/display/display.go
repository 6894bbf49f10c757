// Package display owns the output surface the screens are pushed to.
package display

import (
	"image"

	"github.com/vesaa/argonpanel/internal/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	periphhost "periph.io/x/host/v3"
)

// Sink accepts finished frames. Commit pushes a full frame; the device
// latches it and keeps showing it until the next successful Commit.
type Sink interface {
	Commit(frame image.Image) error
	Close() error
}

// BusConfig locates the panel. The SSD1306 answers at the fixed I2C address 0x3C.
type BusConfig struct {
	Bus    string // i2creg name, e.g. "1" for /dev/i2c-1
	Width  int
	Height int
}

// OLED is an SSD1306 panel on an I2C bus. It holds the bus for its lifetime.
type OLED struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenOLED initialises the host drivers, opens the bus and resets the panel.
// Any failure here is classified INIT.
func OpenOLED(cfg BusConfig) (*OLED, error) {
	if _, err := periphhost.Init(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInit, "load host drivers")
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInit, "open i2c bus "+cfg.Bus)
	}

	opts := ssd1306.DefaultOpts
	opts.W, opts.H = cfg.Width, cfg.Height
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, errors.Wrap(err, errors.ErrInit, "reset ssd1306")
	}
	return &OLED{bus: bus, dev: dev}, nil
}

// Bounds reports the panel resolution.
func (o *OLED) Bounds() image.Rectangle {
	return o.dev.Bounds()
}

// Commit pushes frame to the panel.
func (o *OLED) Commit(frame image.Image) error {
	if err := o.dev.Draw(o.dev.Bounds(), frame, image.Point{}); err != nil {
		return errors.Wrap(err, errors.ErrSink, "write frame")
	}
	return nil
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	haltErr := o.dev.Halt()
	if err := o.bus.Close(); err != nil {
		return errors.Wrap(err, errors.ErrSink, "close i2c bus")
	}
	if haltErr != nil {
		return errors.Wrap(haltErr, errors.ErrSink, "halt display")
	}
	return nil
}
