//go:build linux

package gpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// Chip reads buttons through the Linux GPIO character device.
type Chip struct {
	chip    *gpiocdev.Chip
	lines   map[uint8]*gpiocdev.Line
	failing map[uint8]bool
	errs    []error
}

// NewChip opens the named GPIO chip, e.g. "gpiochip0".
func NewChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{
		chip:    chip,
		lines:   make(map[uint8]*gpiocdev.Line),
		failing: make(map[uint8]bool),
	}, nil
}

// ConfigureInputPullUp requests pin as an input with the internal pull-up.
// Failures are kept and reported by Err.
func (c *Chip) ConfigureInputPullUp(pin uint8) {
	if _, ok := c.lines[pin]; ok {
		return
	}
	line, err := c.chip.RequestLine(int(pin), gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("request pin %d: %w", pin, err))
		return
	}
	c.lines[pin] = line
}

// DigitalRead returns the raw level of pin. A pin that was never configured
// or fails to read is reported High so it cannot produce presses.
func (c *Chip) DigitalRead(pin uint8) int {
	line, ok := c.lines[pin]
	if !ok {
		return High
	}
	v, err := line.Value()
	if err != nil {
		if !c.failing[pin] {
			log.WithField("pin", pin).Errorf("gpio read error: %v", err)
			c.failing[pin] = true
		}
		return High
	}
	if c.failing[pin] {
		log.WithField("pin", pin).Info("gpio read recovered")
		c.failing[pin] = false
	}
	if v == 0 {
		return Low
	}
	return High
}

// Err returns the errors collected while configuring pins.
func (c *Chip) Err() error {
	if len(c.errs) > 0 {
		return fmt.Errorf("configure errors: %v", c.errs)
	}
	return nil
}

// Close releases GPIO resources.
// Lines are left as pulled-up inputs so an attached button reads released
// while nothing owns the pin.
func (c *Chip) Close() error {
	var errs []error

	for pin, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	c.lines = make(map[uint8]*gpiocdev.Line)

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
