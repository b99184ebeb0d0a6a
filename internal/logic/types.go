// Package logic contains the pure irrigation decision logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// MoistureMax is the top of the raw moisture scale (12-bit ADC).
const MoistureMax = 4095

// Mode is the per-tick classification of a moisture reading.
type Mode string

const (
	ModeDry  Mode = "DRY"
	ModeWet  Mode = "WET"
	ModeHold Mode = "HOLD"
)

// Reason explains why the pump is in its commanded state.
type Reason string

const (
	ReasonAutoDry      Reason = "AUTO_DRY"
	ReasonAutoWet      Reason = "AUTO_WET"
	ReasonAutoHold     Reason = "AUTO_HOLD"
	ReasonSafetyCutoff Reason = "SAFETY_CUTOFF"
	ReasonManual       Reason = "MANUAL"
)

// Phase is the watering cycle state of the Machine.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseWatering  Phase = "WATERING"
	PhaseAbsorbing Phase = "ABSORBING"
)

// ErrSensorRead marks a failed or timed-out sensor measurement.
var ErrSensorRead = errors.New("sensor read failed")

// OverrideCommand is a manual command snapshot supplied by an external channel.
type OverrideCommand struct {
	Active bool
	PumpOn bool
}

// PumpCommand is the single output of one tick.
type PumpCommand struct {
	PumpOn bool
	Reason Reason
}

// WaterReading is one collapsed water-level measurement.
// Err != nil means the measurement failed; DistanceCM is then meaningless.
type WaterReading struct {
	DistanceCM int
	Err        error
}

// Input is everything the Machine needs for one tick.
type Input struct {
	Moisture    int
	MoistureErr error
	// Water is nil when no water-level read was requested this tick.
	Water    *WaterReading
	Override OverrideCommand
	Time     time.Time
}

// Status is the snapshot emitted to observers after every tick.
type Status struct {
	Time        time.Time
	PumpOn      bool
	Reason      Reason
	// MoisturePct and MoistureRaw are -1 when the moisture read failed.
	MoisturePct int
	MoistureRaw int
	// DistanceCM is -1 when the last measurement failed or none was taken.
	DistanceCM int
	WaterOK    bool
	Mode       Mode
	Phase      Phase
	Override   OverrideCommand
}

// SameState reports whether two statuses describe the same control state,
// ignoring the timestamp and raw readings.
func (s Status) SameState(o Status) bool {
	return s.PumpOn == o.PumpOn &&
		s.Reason == o.Reason &&
		s.WaterOK == o.WaterOK &&
		s.Mode == o.Mode &&
		s.Phase == o.Phase &&
		s.Override == o.Override &&
		s.MoisturePct == o.MoisturePct
}

// Counts tracks noteworthy occurrences since startup.
type Counts struct {
	Pulses      int
	SafetyTrips int
	ManualTicks int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
	LastPulse time.Time
}

// ConfigError reports an invalid controller configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}
