package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	RunID         string       `json:"run_id"`
	Ready         bool         `json:"ready"`
	Pump          PumpJSON     `json:"pump"`
	Moisture      MoistureJSON `json:"moisture"`
	Water         WaterJSON    `json:"water"`
	Phase         string       `json:"phase"`
	Override      OverrideJSON `json:"override"`
	LastPulse     string       `json:"last_pulse,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// PumpJSON is the commanded pump state.
type PumpJSON struct {
	On     bool   `json:"on"`
	Reason string `json:"reason"`
}

// MoistureJSON is the latest soil reading.
type MoistureJSON struct {
	Raw  int    `json:"raw"`
	Pct  int    `json:"pct"`
	Mode string `json:"mode"`
}

// WaterJSON is the reservoir state.
type WaterJSON struct {
	DistanceCM int  `json:"distance_cm"`
	OK         bool `json:"ok"`
}

// OverrideJSON is the manual command in effect.
type OverrideJSON struct {
	Active bool `json:"active"`
	PumpOn bool `json:"pump_on"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Buffered  int    `json:"buffered"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of the occurrence counters.
type CountsJSON struct {
	Pulses      int `json:"pulses"`
	SafetyTrips int `json:"safety_trips"`
	ManualTicks int `json:"manual_ticks"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs           int64  `json:"tick_ms"`
	MinRunMs         int64  `json:"min_run_ms"`
	AbsorptionMs     int64  `json:"absorption_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	DryThreshold     int    `json:"dry_threshold"`
	WetThreshold     int    `json:"wet_threshold"`
	EmptyThresholdCM int    `json:"empty_threshold_cm"`
	Confirmations    int    `json:"low_water_confirmations"`
	Broker           string `json:"broker"`
	HTTPPort         string `json:"http_port"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	st := snap.Status
	inner := StatusInner{
		RunID:         snap.RunID,
		Ready:         snap.Ready,
		Pump:          PumpJSON{On: st.PumpOn, Reason: orUnknown(string(st.Reason))},
		Moisture:      MoistureJSON{Raw: st.MoistureRaw, Pct: st.MoisturePct, Mode: orUnknown(string(st.Mode))},
		Water:         WaterJSON{DistanceCM: st.DistanceCM, OK: st.WaterOK},
		Phase:         orUnknown(string(st.Phase)),
		Override:      OverrideJSON{Active: st.Override.Active, PumpOn: st.Override.PumpOn},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Buffered: snap.MQTTBuffered, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Pulses:      snap.Counts.Pulses,
			SafetyTrips: snap.Counts.SafetyTrips,
			ManualTicks: snap.Counts.ManualTicks,
		},
		Config: ConfigJSON{
			TickMs:           snap.Config.TickMs,
			MinRunMs:         snap.Config.MinRunMs,
			AbsorptionMs:     snap.Config.AbsorptionMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			DryThreshold:     snap.Config.DryThreshold,
			WetThreshold:     snap.Config.WetThreshold,
			EmptyThresholdCM: snap.Config.EmptyThresholdCM,
			Confirmations:    snap.Config.Confirmations,
			Broker:           snap.Config.Broker,
			HTTPPort:         snap.Config.HTTPPort,
		},
	}
	if !snap.Ready {
		inner.Moisture.Raw = -1
		inner.Moisture.Pct = -1
		inner.Water.DistanceCM = -1
	}
	if !snap.LastPulse.IsZero() {
		inner.LastPulse = snap.LastPulse.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
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
