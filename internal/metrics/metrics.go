// Package metrics exposes the irrigation status as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/irrigator/internal/logic"
)

var (
	phases  = []logic.Phase{logic.PhaseIdle, logic.PhaseWatering, logic.PhaseAbsorbing}
	modes   = []logic.Mode{logic.ModeDry, logic.ModeWet, logic.ModeHold}
	reasons = []logic.Reason{
		logic.ReasonAutoDry,
		logic.ReasonAutoWet,
		logic.ReasonAutoHold,
		logic.ReasonSafetyCutoff,
		logic.ReasonManual,
	}
)

// Collector is a status sink that keeps the latest tick as gauges and counts
// pulses, safety trips and manual ticks.
type Collector struct {
	mu   sync.Mutex
	last logic.Status
	seen bool

	pumpOn         prometheus.Gauge
	moistureRaw    prometheus.Gauge
	moisturePct    prometheus.Gauge
	waterDistance  prometheus.Gauge
	waterOK        prometheus.Gauge
	overrideActive prometheus.Gauge
	lastTick       prometheus.Gauge
	phase          *prometheus.GaugeVec
	mode           *prometheus.GaugeVec
	reason         *prometheus.GaugeVec

	ticks       prometheus.Counter
	pulses      prometheus.Counter
	safetyTrips prometheus.Counter
	manualTicks prometheus.Counter
}

// NewCollector creates a Collector with all gauges at zero.
func NewCollector() *Collector {
	return &Collector{
		pumpOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_pump_on",
			Help: "Commanded pump state (1=on, 0=off)",
		}),
		moistureRaw: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_moisture_raw",
			Help: "Raw soil moisture reading (higher is drier, -1 on read error)",
		}),
		moisturePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_moisture_percent",
			Help: "Soil moisture mapped between the dry (0) and wet (100) thresholds",
		}),
		waterDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_water_distance_cm",
			Help: "Distance from sensor to water surface (cm, -1 if unknown)",
		}),
		waterOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_water_ok",
			Help: "1 unless the low-water safety cutoff is active",
		}),
		overrideActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_override_active",
			Help: "1 while a manual override is in effect",
		}),
		lastTick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigator_last_tick_timestamp_seconds",
			Help: "Time of the last control tick (epoch seconds)",
		}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "irrigator_phase",
			Help: "Current watering cycle phase (1 for the active phase)",
		}, []string{"phase"}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "irrigator_moisture_mode",
			Help: "Current moisture classification (1 for the active mode)",
		}, []string{"mode"}),
		reason: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "irrigator_pump_reason",
			Help: "Reason for the commanded pump state (1 for the active reason)",
		}, []string{"reason"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigator_ticks_total",
			Help: "Control ticks processed",
		}),
		pulses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigator_pulses_total",
			Help: "Watering pulses started",
		}),
		safetyTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigator_safety_trips_total",
			Help: "Times the low-water cutoff engaged",
		}),
		manualTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigator_manual_ticks_total",
			Help: "Ticks spent under manual override",
		}),
	}
}

// Publish updates the metrics from one tick's status.
func (c *Collector) Publish(st logic.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks.Inc()
	c.pumpOn.Set(boolFloat(st.PumpOn))
	c.moistureRaw.Set(float64(st.MoistureRaw))
	c.moisturePct.Set(float64(st.MoisturePct))
	c.waterDistance.Set(float64(st.DistanceCM))
	c.waterOK.Set(boolFloat(st.WaterOK))
	c.overrideActive.Set(boolFloat(st.Override.Active))
	if !st.Time.IsZero() {
		c.lastTick.Set(float64(st.Time.Unix()))
	}

	for _, p := range phases {
		c.phase.WithLabelValues(string(p)).Set(boolFloat(st.Phase == p))
	}
	for _, m := range modes {
		c.mode.WithLabelValues(string(m)).Set(boolFloat(st.Mode == m))
	}
	for _, r := range reasons {
		c.reason.WithLabelValues(string(r)).Set(boolFloat(st.Reason == r))
	}

	if st.Phase == logic.PhaseWatering && (!c.seen || c.last.Phase != logic.PhaseWatering) {
		c.pulses.Inc()
	}
	if !st.WaterOK && (!c.seen || c.last.WaterOK) {
		c.safetyTrips.Inc()
	}
	if st.Override.Active && st.WaterOK {
		c.manualTicks.Inc()
	}

	c.last = st
	c.seen = true
	return nil
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.pumpOn.Describe(ch)
	c.moistureRaw.Describe(ch)
	c.moisturePct.Describe(ch)
	c.waterDistance.Describe(ch)
	c.waterOK.Describe(ch)
	c.overrideActive.Describe(ch)
	c.lastTick.Describe(ch)
	c.phase.Describe(ch)
	c.mode.Describe(ch)
	c.reason.Describe(ch)
	c.ticks.Describe(ch)
	c.pulses.Describe(ch)
	c.safetyTrips.Describe(ch)
	c.manualTicks.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pumpOn.Collect(ch)
	c.moistureRaw.Collect(ch)
	c.moisturePct.Collect(ch)
	c.waterDistance.Collect(ch)
	c.waterOK.Collect(ch)
	c.overrideActive.Collect(ch)
	c.lastTick.Collect(ch)
	c.phase.Collect(ch)
	c.mode.Collect(ch)
	c.reason.Collect(ch)
	c.ticks.Collect(ch)
	c.pulses.Collect(ch)
	c.safetyTrips.Collect(ch)
	c.manualTicks.Collect(ch)
}

// NewRegistry returns a registry holding the collector plus the standard Go
// runtime and process collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
