package button

// Monitor tracks one button and fires short and long press callbacks.
// It is not safe for concurrent use; the host polls it from a single loop.
type Monitor struct {
	board Board
	clock Clock
	pin   uint8

	prevState      int
	debounceLocked bool
	longPressFired bool
	pressStart     uint32
	debounceStart  uint32
	longPressTime  uint16

	shortPressFunc func()
	longPressFunc  func()

	counts EventCounts
}

// New binds a monitor to pin on board and configures the pin as a
// pulled-up input.
func New(board Board, clock Clock, pin uint8) *Monitor {
	m := &Monitor{
		board:         board,
		clock:         clock,
		pin:           pin,
		prevState:     Released,
		longPressTime: DefaultLongPressTime,
	}
	board.ConfigureInputPullUp(pin)
	return m
}

// Poll checks the button state and timers and fires any due callback.
// It must be called on every iteration of the host loop and never blocks.
// Callbacks run synchronously and must not call Poll on the same monitor.
//
// A release that is both made and undone while the debounce lock is held
// is never seen as an edge, so no short press fires for it.
func (m *Monitor) Poll() {
	if m.debounceLocked {
		// Unsigned subtraction stays correct across clock wraparound.
		if m.clock.Millis()-m.debounceStart > DebounceTimeout {
			m.debounceLocked = false
		}
		return
	}

	current := m.board.DigitalRead(m.pin)
	now := m.clock.Millis()

	if current == Pressed && m.prevState == Released {
		m.pressStart = now
		m.longPressFired = false
	} else if current == Released && m.prevState == Pressed && !m.longPressFired &&
		m.shortPressFunc != nil {
		m.counts.ShortPress++
		m.shortPressFunc()
	} else if current == Pressed && !m.longPressFired &&
		now-m.pressStart > uint32(m.longPressTime) && m.longPressFunc != nil {
		m.counts.LongPress++
		m.longPressFunc()
		m.longPressFired = true
	}

	if current != m.prevState {
		m.debounceStart = now
		m.debounceLocked = true
	}
	m.prevState = current
}

// SetShortPressFunc sets the callback fired when the button is released
// before the long press time. A nil f clears it.
func (m *Monitor) SetShortPressFunc(f func()) {
	m.shortPressFunc = f
}

// SetLongPressFunc sets the callback fired once the button has been held
// longer than the long press time. A nil f clears it.
func (m *Monitor) SetLongPressFunc(f func()) {
	m.longPressFunc = f
}

// SetLongPressTime sets the long press threshold in milliseconds. A press
// already in progress is compared against the new value from the next poll.
func (m *Monitor) SetLongPressTime(ms uint16) {
	m.longPressTime = ms
}

// Pin returns the pin the monitor is bound to.
func (m *Monitor) Pin() uint8 {
	return m.pin
}

// Counts returns the number of callbacks invoked since construction.
func (m *Monitor) Counts() EventCounts {
	return m.counts
}

// State returns the current monitor state.
func (m *Monitor) State() Snapshot {
	return Snapshot{
		Pin:            m.pin,
		Pressed:        m.prevState == Pressed,
		Locked:         m.debounceLocked,
		LongPressFired: m.longPressFired,
		LongPressTime:  m.longPressTime,
		Counts:         m.counts,
	}
}
