// Package button contains the debounce and press classification logic for a
// single push-button. This package has NO external dependencies (no GPIO,
// MQTT, OS, or time.Sleep). Pin levels and time are injected through the
// Board and Clock interfaces.
package button

import "time"

// Timing constants in milliseconds.
const (
	// DebounceTimeout is how long state evaluation is suspended after any
	// observed level change.
	DebounceTimeout uint32 = 500

	// DefaultLongPressTime is the hold duration after which a press counts
	// as a long press, unless overridden with SetLongPressTime.
	DefaultLongPressTime uint16 = 3000
)

// Pin levels as returned by Board.DigitalRead. With pull-up wiring a
// pressed button pulls the line low.
const (
	Pressed  = 0
	Released = 1
)

// Board is the digital I/O the monitor reads from.
type Board interface {
	// ConfigureInputPullUp sets pin up as an input with the internal
	// pull-up enabled.
	ConfigureInputPullUp(pin uint8)

	// DigitalRead returns the current logical level of pin (0 or 1).
	DigitalRead(pin uint8) int
}

// Clock is a monotonic millisecond counter that wraps at its numeric limit.
type Clock interface {
	Millis() uint32
}

// EventType represents a classified button interaction.
type EventType string

const (
	EventShortPress EventType = "SHORT_PRESS"
	EventLongPress  EventType = "LONG_PRESS"
)

// Event represents a press outcome to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Pin       uint8
}

// EventCounts tracks how many callbacks of each kind have been invoked.
type EventCounts struct {
	ShortPress int
	LongPress  int
}

// Snapshot is a point-in-time view of a monitor's state.
type Snapshot struct {
	Pin            uint8
	Pressed        bool
	Locked         bool
	LongPressFired bool
	LongPressTime  uint16
	Counts         EventCounts
}
