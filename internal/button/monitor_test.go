package button

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/button-monitor/internal/clock"
	"github.com/sweeney/button-monitor/internal/gpio"
)

const testPin = 17

type harness struct {
	board  *gpio.FakeBoard
	clock  *clock.Fake
	m      *Monitor
	shorts int
	longs  int
}

func newHarness(t *testing.T, start uint32) *harness {
	t.Helper()
	h := &harness{
		board: gpio.NewFakeBoard(),
		clock: clock.NewFake(start),
	}
	h.m = New(h.board, h.clock, testPin)
	h.m.SetShortPressFunc(func() { h.shorts++ })
	h.m.SetLongPressFunc(func() { h.longs++ })
	return h
}

// run polls every step ms until ms have elapsed.
func (h *harness) run(ms, step uint32) {
	for elapsed := uint32(0); elapsed < ms; elapsed += step {
		h.m.Poll()
		h.clock.Advance(step)
	}
}

func TestNew(t *testing.T) {
	board := gpio.NewFakeBoard()
	m := New(board, clock.NewFake(0), testPin)

	assert.Equal(t, []uint8{testPin}, board.Configured, "pin configured as pulled-up input")
	assert.Equal(t, uint8(testPin), m.Pin())

	s := m.State()
	assert.False(t, s.Pressed)
	assert.False(t, s.Locked)
	assert.False(t, s.LongPressFired)
	assert.Equal(t, DefaultLongPressTime, s.LongPressTime)
	assert.Nil(t, m.shortPressFunc)
	assert.Nil(t, m.longPressFunc)
}

func TestShortPress(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.run(200, 10)
	h.board.Release(testPin)
	h.run(1000, 10)

	assert.Equal(t, 1, h.shorts)
	assert.Equal(t, 0, h.longs)
	assert.Equal(t, EventCounts{ShortPress: 1}, h.m.Counts())
}

func TestShortPressAfterDebounceWindow(t *testing.T) {
	// Release after the press's lock has expired still fires immediately.
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.run(700, 10)
	require.False(t, h.m.State().Locked)
	require.Equal(t, 0, h.shorts)

	h.board.Release(testPin)
	h.m.Poll()
	assert.Equal(t, 1, h.shorts)
	assert.True(t, h.m.State().Locked)
}

func TestLongPress(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.run(5000, 10)

	assert.Equal(t, 1, h.longs)
	assert.Equal(t, 0, h.shorts)
	assert.True(t, h.m.State().LongPressFired)

	h.board.Release(testPin)
	h.run(1000, 10)

	assert.Equal(t, 1, h.longs, "release after long press fires nothing")
	assert.Equal(t, 0, h.shorts, "release after long press fires nothing")
}

func TestLongPressFiresOnFirstPollPastThreshold(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.m.Poll() // t=0 press starts
	h.clock.Set(600)
	h.m.Poll() // unlock

	h.clock.Set(3000)
	h.m.Poll()
	assert.Equal(t, 0, h.longs, "3000ms is not strictly greater than the threshold")

	h.clock.Set(3001)
	h.m.Poll()
	assert.Equal(t, 1, h.longs)

	h.clock.Set(9000)
	h.m.Poll()
	assert.Equal(t, 1, h.longs, "fires once per press cycle")
}

func TestRepeatedPresses(t *testing.T) {
	h := newHarness(t, 0)

	for i := 0; i < 3; i++ {
		h.board.Press(testPin)
		h.run(100, 10)
		h.board.Release(testPin)
		h.run(1200, 10)
	}
	h.board.Press(testPin)
	h.run(4000, 10)
	h.board.Release(testPin)
	h.run(600, 10)

	assert.Equal(t, 3, h.shorts)
	assert.Equal(t, 1, h.longs)
	assert.Equal(t, EventCounts{ShortPress: 3, LongPress: 1}, h.m.Counts())
}

func TestLongPressFiredResetOnNewPress(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.run(3500, 10)
	require.True(t, h.m.State().LongPressFired)

	h.board.Release(testPin)
	h.run(600, 10)
	assert.True(t, h.m.State().LongPressFired, "flag survives release")

	h.board.Press(testPin)
	h.m.Poll()
	assert.False(t, h.m.State().LongPressFired, "flag cleared on new press")

	h.run(600, 10)
	h.board.Release(testPin)
	h.m.Poll()
	assert.Equal(t, 1, h.shorts)
}

func TestNoCallbackWhileLocked(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.m.Poll()
	require.True(t, h.m.State().Locked)

	// Bounce: release and press again inside the lock window.
	h.clock.Advance(50)
	h.board.Release(testPin)
	h.m.Poll()
	h.clock.Advance(50)
	h.board.Press(testPin)
	h.m.Poll()

	assert.Equal(t, 0, h.shorts)
	assert.Equal(t, 0, h.longs)
	assert.Equal(t, 1, h.board.Reads[testPin], "no reads while locked")
}

func TestDebounceLockDuration(t *testing.T) {
	h := newHarness(t, 1000)

	h.board.Press(testPin)
	h.m.Poll()
	require.True(t, h.m.State().Locked)
	reads := h.board.Reads[testPin]

	h.clock.Set(1500)
	h.m.Poll()
	assert.True(t, h.m.State().Locked, "still locked at exactly the timeout")

	h.clock.Set(1501)
	h.m.Poll()
	assert.False(t, h.m.State().Locked, "unlocked once past the timeout")
	assert.Equal(t, reads, h.board.Reads[testPin], "unlocking poll does not read the pin")

	h.m.Poll()
	assert.Equal(t, reads+1, h.board.Reads[testPin])
}

func TestMissedReleaseDuringLock(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.m.Poll()
	h.clock.Advance(100)
	h.board.Release(testPin)
	h.clock.Advance(100)
	h.board.Press(testPin)
	h.run(500, 100)

	// The release never showed up as an edge.
	assert.Equal(t, 0, h.shorts)
	assert.True(t, h.m.State().Pressed)
}

func TestSetLongPressTime(t *testing.T) {
	tests := []struct {
		name  string
		hold  uint32
		longs int
	}{
		{"1200ms hold fires", 1200, 1},
		{"800ms hold does not fire", 800, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0)
			h.m.SetLongPressTime(1000)

			h.board.Press(testPin)
			h.run(tt.hold, 10)
			h.board.Release(testPin)
			h.run(600, 10)

			assert.Equal(t, tt.longs, h.longs)
			assert.Equal(t, 1-tt.longs, h.shorts)
		})
	}
}

func TestSetLongPressTimeMidPress(t *testing.T) {
	h := newHarness(t, 0)

	h.board.Press(testPin)
	h.run(1500, 10)
	require.Equal(t, 0, h.longs)

	// New threshold applies to the press already in progress.
	h.m.SetLongPressTime(1000)
	h.m.Poll()
	assert.Equal(t, 1, h.longs)
}

func TestNoCallbacks(t *testing.T) {
	board := gpio.NewFakeBoard()
	clk := clock.NewFake(0)
	m := New(board, clk, testPin)

	poll := func(ms uint32) {
		for i := uint32(0); i < ms; i += 10 {
			m.Poll()
			clk.Advance(10)
		}
	}

	board.Press(testPin)
	poll(200)
	board.Release(testPin)
	poll(600)
	board.Press(testPin)
	poll(5000)
	board.Release(testPin)
	poll(600)

	assert.Equal(t, EventCounts{}, m.Counts())
	assert.False(t, m.State().LongPressFired, "flag only set when a callback runs")
}

func TestLongPressWithoutLongCallbackFallsBackToShort(t *testing.T) {
	h := newHarness(t, 0)
	h.m.SetLongPressFunc(nil)

	h.board.Press(testPin)
	h.run(5000, 10)
	h.board.Release(testPin)
	h.run(600, 10)

	assert.Equal(t, 0, h.longs)
	assert.Equal(t, 1, h.shorts)
}

func TestClearShortPressFunc(t *testing.T) {
	h := newHarness(t, 0)
	h.m.SetShortPressFunc(nil)

	h.board.Press(testPin)
	h.run(200, 10)
	h.board.Release(testPin)
	h.run(600, 10)

	assert.Equal(t, 0, h.shorts)
	assert.Equal(t, EventCounts{}, h.m.Counts())
}

func TestReplaceCallback(t *testing.T) {
	h := newHarness(t, 0)
	other := 0
	h.m.SetShortPressFunc(func() { other++ })

	h.board.Press(testPin)
	h.run(200, 10)
	h.board.Release(testPin)
	h.run(600, 10)

	assert.Equal(t, 0, h.shorts)
	assert.Equal(t, 1, other)
}

func TestHoldAcrossClockWrap(t *testing.T) {
	h := newHarness(t, math.MaxUint32-1000)

	h.board.Press(testPin)
	h.run(2900, 10)
	assert.Equal(t, 0, h.longs, "hold shorter than threshold across the wrap")

	h.run(200, 10)
	assert.Equal(t, 1, h.longs)
	assert.Less(t, h.clock.Millis(), uint32(10000), "clock wrapped during the hold")
}

func TestDebounceAcrossClockWrap(t *testing.T) {
	h := newHarness(t, math.MaxUint32-100)

	h.board.Press(testPin)
	h.m.Poll()
	require.True(t, h.m.State().Locked)

	h.clock.Advance(300) // wraps to 199
	h.m.Poll()
	assert.True(t, h.m.State().Locked, "300ms into the window")

	h.clock.Advance(201)
	h.m.Poll()
	assert.False(t, h.m.State().Locked, "501ms into the window")
}

func TestMonitorsIndependent(t *testing.T) {
	board := gpio.NewFakeBoard()
	clk := clock.NewFake(0)
	a := New(board, clk, 17)
	b := New(board, clk, 27)

	var aShort, bLong int
	a.SetShortPressFunc(func() { aShort++ })
	b.SetLongPressFunc(func() { bLong++ })

	board.Press(17)
	board.Press(27)
	for i := 0; i < 20; i++ {
		a.Poll()
		b.Poll()
		clk.Advance(10)
	}
	board.Release(17)
	for i := 0; i < 400; i++ {
		a.Poll()
		b.Poll()
		clk.Advance(10)
	}

	assert.Equal(t, 1, aShort)
	assert.Equal(t, 1, bLong)
	assert.Equal(t, EventCounts{ShortPress: 1}, a.Counts())
	assert.Equal(t, EventCounts{LongPress: 1}, b.Counts())
}
