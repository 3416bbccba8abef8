//go:build !linux

package gpio

import "errors"

// Chip is not available on non-Linux platforms.
type Chip struct{}

// NewChip returns an error on non-Linux platforms.
func NewChip(name string) (*Chip, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}

// ConfigureInputPullUp is not implemented on non-Linux platforms.
func (c *Chip) ConfigureInputPullUp(pin uint8) {}

// DigitalRead always reports High on non-Linux platforms.
func (c *Chip) DigitalRead(pin uint8) int {
	return High
}

// Err is not implemented on non-Linux platforms.
func (c *Chip) Err() error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}
