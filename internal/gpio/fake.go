package gpio

// FakeBoard is a test double holding scripted pin levels.
// Pins read High until set otherwise, like a released pulled-up button.
type FakeBoard struct {
	levels map[uint8]int

	// Configured lists pins passed to ConfigureInputPullUp, in order.
	Configured []uint8

	// Reads counts DigitalRead calls per pin.
	Reads map[uint8]int
}

// NewFakeBoard creates an empty FakeBoard.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{
		levels: make(map[uint8]int),
		Reads:  make(map[uint8]int),
	}
}

// ConfigureInputPullUp records the pin and pulls it High.
func (f *FakeBoard) ConfigureInputPullUp(pin uint8) {
	f.Configured = append(f.Configured, pin)
	if _, ok := f.levels[pin]; !ok {
		f.levels[pin] = High
	}
}

// DigitalRead returns the scripted level of pin.
func (f *FakeBoard) DigitalRead(pin uint8) int {
	f.Reads[pin]++
	level, ok := f.levels[pin]
	if !ok {
		return High
	}
	return level
}

// Set drives pin to level.
func (f *FakeBoard) Set(pin uint8, level int) {
	f.levels[pin] = level
}

// Press pulls pin Low.
func (f *FakeBoard) Press(pin uint8) {
	f.Set(pin, Low)
}

// Release lets pin float back High.
func (f *FakeBoard) Release(pin uint8) {
	f.Set(pin, High)
}

// Reset clears all levels and recorded calls.
func (f *FakeBoard) Reset() {
	f.levels = make(map[uint8]int)
	f.Reads = make(map[uint8]int)
	f.Configured = nil
}
