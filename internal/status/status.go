// Package status provides a thread-safe status tracker for the irrigator daemon.
// It is fed by the controller after every tick and read by HTTP handlers and
// the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/irrigator/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs           int64
	MinRunMs         int64
	AbsorptionMs     int64
	HeartbeatMs      int64
	DryThreshold     int
	WetThreshold     int
	EmptyThresholdCM int
	Confirmations    int
	Broker           string
	HTTPPort         string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	RunID         string
	Status        logic.Status
	Ready         bool // at least one tick has completed
	Counts        logic.Counts
	LastPulse     time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTBuffered  int
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given run ID, start time and config.
func NewTracker(runID string, startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			RunID:     runID,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Publish records the status of the latest tick. A new pulse start is noted
// as the last pulse time. It never fails; the error return satisfies the
// controller's sink interface.
func (t *Tracker) Publish(st logic.Status) error {
	t.mu.Lock()
	if st.Phase == logic.PhaseWatering && (!t.snap.Ready || t.snap.Status.Phase != logic.PhaseWatering) {
		t.snap.LastPulse = st.Time
	}
	t.snap.Status = st
	t.snap.Ready = true
	t.mu.Unlock()
	return nil
}

// SetCounts sets the occurrence counters.
func (t *Tracker) SetCounts(c logic.Counts) {
	t.mu.Lock()
	t.snap.Counts = c
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered sets the number of messages queued while disconnected.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
