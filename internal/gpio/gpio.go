// Package gpio provides digital input boards for the button monitor.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementation allows testing without hardware.
package gpio

// Logical pin levels. With pull-up wiring a pressed button reads Low.
const (
	Low  = 0
	High = 1
)

// DefaultPin is the BCM pin the button is wired to when none is given.
const DefaultPin = 17

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"
