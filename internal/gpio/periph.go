package gpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph reads buttons through the periph.io host drivers. Pins are looked
// up by their BCM name, GPIO<n>.
type Periph struct {
	pins map[uint8]pgpio.PinIO
	errs []error
}

// NewPeriph loads the periph.io host drivers.
func NewPeriph() (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return &Periph{pins: make(map[uint8]pgpio.PinIO)}, nil
}

// ConfigureInputPullUp sets pin as an input with the internal pull-up and
// edge detection disabled. Failures are kept and reported by Err.
func (p *Periph) ConfigureInputPullUp(pin uint8) {
	if _, ok := p.pins[pin]; ok {
		return
	}
	name := fmt.Sprintf("GPIO%d", pin)
	line := gpioreg.ByName(name)
	if line == nil {
		p.errs = append(p.errs, fmt.Errorf("pin %s not found", name))
		return
	}
	if err := line.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		p.errs = append(p.errs, fmt.Errorf("configure %s: %w", name, err))
		return
	}
	log.WithField("pin", pin).Debugf("configured %s as pulled-up input", line)
	p.pins[pin] = line
}

// DigitalRead returns the level of pin; unknown pins read High.
func (p *Periph) DigitalRead(pin uint8) int {
	line, ok := p.pins[pin]
	if !ok {
		return High
	}
	if line.Read() == pgpio.Low {
		return Low
	}
	return High
}

// Err returns the errors collected while configuring pins.
func (p *Periph) Err() error {
	if len(p.errs) > 0 {
		return fmt.Errorf("configure errors: %v", p.errs)
	}
	return nil
}

// Close halts every configured pin.
func (p *Periph) Close() error {
	var errs []error
	for pin, line := range p.pins {
		if err := line.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt pin %d: %w", pin, err))
		}
	}
	p.pins = make(map[uint8]pgpio.PinIO)
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
