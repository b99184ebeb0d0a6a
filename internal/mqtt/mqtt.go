// Package mqtt publishes irrigation status and system events to an MQTT
// broker and receives manual override commands from it.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/irrigator/internal/logic"
)

// Topic is the MQTT topic for irrigation status changes.
const Topic = "garden/irrigator/status"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "garden/irrigator/system"

// TopicOverride is the MQTT topic the controller listens on for manual commands.
const TopicOverride = "garden/irrigator/override"

// Publisher publishes status and system events to MQTT.
type Publisher interface {
	// Publish sends the tick status to the broker if it differs from the
	// last one sent. Returns error if publishing fails (should not crash
	// the process).
	Publish(st logic.Status) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how
// many messages are queued for it.
type ConnectionStatus interface {
	IsConnected() bool
	Buffered() int
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT status message.
type Payload struct {
	Irrigation IrrigationPayload `json:"irrigation"`
}

// IrrigationPayload contains one status snapshot.
type IrrigationPayload struct {
	Timestamp string          `json:"timestamp"`
	Pump      PumpPayload     `json:"pump"`
	Moisture  MoisturePayload `json:"moisture"`
	Water     WaterPayload    `json:"water"`
	Phase     string          `json:"phase"`
	Override  OverridePayload `json:"override"`
}

// PumpPayload is the commanded pump state and why.
type PumpPayload struct {
	On     bool   `json:"on"`
	Reason string `json:"reason"`
}

// MoisturePayload describes the soil reading.
type MoisturePayload struct {
	Raw  int    `json:"raw"`
	Pct  int    `json:"pct"`
	Mode string `json:"mode"`
}

// WaterPayload describes the reservoir.
type WaterPayload struct {
	DistanceCM int  `json:"distance_cm"`
	OK         bool `json:"ok"`
}

// OverridePayload mirrors the manual command in effect.
type OverridePayload struct {
	Active bool `json:"active"`
	PumpOn bool `json:"pump_on"`
}

// FormatPayload creates the JSON payload for a status snapshot.
func FormatPayload(st logic.Status) ([]byte, error) {
	payload := Payload{
		Irrigation: IrrigationPayload{
			Timestamp: st.Time.UTC().Format(time.RFC3339),
			Pump:      PumpPayload{On: st.PumpOn, Reason: string(st.Reason)},
			Moisture:  MoisturePayload{Raw: st.MoistureRaw, Pct: st.MoisturePct, Mode: string(st.Mode)},
			Water:     WaterPayload{DistanceCM: st.DistanceCM, OK: st.WaterOK},
			Phase:     string(st.Phase),
			Override:  OverridePayload{Active: st.Override.Active, PumpOn: st.Override.PumpOn},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// changeFilter suppresses status messages that repeat the previous control state.
type changeFilter struct {
	last logic.Status
	seen bool
}

func (f *changeFilter) changed(st logic.Status) bool {
	if f.seen && st.SameState(f.last) {
		return false
	}
	f.last = st
	f.seen = true
	return true
}
