package clock

// Fake is a manually driven clock for tests.
type Fake struct {
	now uint32
}

// NewFake creates a Fake clock reading start.
func NewFake(start uint32) *Fake {
	return &Fake{now: start}
}

// Millis returns the current fake time.
func (f *Fake) Millis() uint32 {
	return f.now
}

// Set jumps the clock to ms.
func (f *Fake) Set(ms uint32) {
	f.now = ms
}

// Advance moves the clock forward by ms, wrapping past the maximum.
func (f *Fake) Advance(ms uint32) {
	f.now += ms
}
