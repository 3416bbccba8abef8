package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-monitor/internal/button"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Buttons       []ButtonJSON `json:"buttons"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Config        ConfigJSON   `json:"config"`
}

// ButtonJSON is the JSON representation of one monitored button.
type ButtonJSON struct {
	Pin            uint8      `json:"pin"`
	State          string     `json:"state"`
	Locked         bool       `json:"debounce_locked"`
	LongPressFired bool       `json:"long_press_fired"`
	LongPressMs    uint16     `json:"long_press_ms"`
	Counts         CountsJSON `json:"event_counts"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ShortPress int `json:"short_press"`
	LongPress  int `json:"long_press"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	LongPressMs int64  `json:"long_press_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Backend     string `json:"backend"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

// StateString renders a button's level as PRESSED or RELEASED.
func StateString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

func countsJSON(c button.EventCounts) CountsJSON {
	return CountsJSON{ShortPress: c.ShortPress, LongPress: c.LongPress}
}

func buildInner(snap Snapshot) StatusInner {
	buttons := make([]ButtonJSON, 0, len(snap.Buttons))
	for _, b := range snap.Buttons {
		buttons = append(buttons, ButtonJSON{
			Pin:            b.Pin,
			State:          StateString(b.Pressed),
			Locked:         b.Locked,
			LongPressFired: b.LongPressFired,
			LongPressMs:    b.LongPressTime,
			Counts:         countsJSON(b.Counts),
		})
	}

	return StatusInner{
		Buttons:       buttons,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        countsJSON(snap.Totals()),
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			LongPressMs: snap.Config.LongPressMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Backend:     snap.Config.Backend,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
