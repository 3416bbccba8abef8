// Package clock provides monotonic millisecond counters for the button
// monitor. Counters are 32 bits wide and wrap around at their limit.
package clock

import "time"

// System counts milliseconds since it was created.
type System struct {
	start  time.Time
	offset uint32
}

// NewSystem creates a System clock that starts at offset. A non-zero
// offset starts the counter part way through its range, which lets a
// device reach the wrap point without waiting 49 days.
func NewSystem(offset uint32) *System {
	return &System{start: time.Now(), offset: offset}
}

// Millis returns the elapsed milliseconds, truncated to 32 bits.
func (s *System) Millis() uint32 {
	return s.offset + uint32(time.Since(s.start).Milliseconds())
}
