// Package status provides a thread-safe status tracker for the button-monitor daemon.
// It is read by the HTTP handlers and used to build MQTT system events.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/button-monitor/internal/button"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	LongPressMs int64
	HeartbeatMs int64
	Backend     string
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Buttons       []button.Snapshot // ordered by pin
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Totals sums the event counts of all buttons.
func (s Snapshot) Totals() button.EventCounts {
	var c button.EventCounts
	for _, b := range s.Buttons {
		c.ShortPress += b.Counts.ShortPress
		c.LongPress += b.Counts.LongPress
	}
	return c
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	buttons       map[uint8]button.Snapshot
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		buttons:       make(map[uint8]button.Snapshot),
		lastHeartbeat: startTime,
	}
}

// Update records the latest state of one or more buttons.
// Called from the run loop after every poll.
func (t *Tracker) Update(states ...button.Snapshot) {
	t.mu.Lock()
	for _, s := range states {
		t.buttons[s.Pin] = s
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// HeartbeatDue reports whether interval has elapsed since the last
// heartbeat (or startup), and if so marks a heartbeat as sent at now.
// An interval <= 0 disables heartbeats.
func (t *Tracker) HeartbeatDue(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = make([]button.Snapshot, 0, len(t.buttons))
	for _, b := range t.buttons {
		s.Buttons = append(s.Buttons, b)
	}
	t.mu.RUnlock()

	sort.Slice(s.Buttons, func(i, j int) bool { return s.Buttons[i].Pin < s.Buttons[j].Pin })
	s.Now = time.Now()
	return s
}
