package logic

import "time"

// Machine is the irrigation state machine. It owns the debouncer, the
// hysteresis memory and the pulse/cooldown timers, and produces one pump
// command per tick. Not safe for concurrent use; the caller steps it from a
// single goroutine.
type Machine struct {
	cfg        Config
	debouncer  *Debouncer
	hysteresis *Hysteresis

	phase      Phase
	phaseSince time.Time
	mode       Mode
	distanceCM int
	wasEmpty   bool
	lastCmd    PumpCommand

	startTime     time.Time
	lastHeartbeat time.Time
	lastPulse     time.Time
	counts        Counts
}

// NewMachine creates a Machine in IDLE with the pump off.
// The startTime is used for calculating uptime in heartbeat events.
func NewMachine(cfg Config, startTime time.Time) *Machine {
	return &Machine{
		cfg:           cfg,
		debouncer:     NewDebouncer(cfg.EmptyThresholdCM, cfg.LowWaterConfirmations),
		hysteresis:    NewHysteresis(cfg.DryThreshold, cfg.WetThreshold),
		phase:         PhaseIdle,
		mode:          ModeHold,
		distanceCM:    -1,
		lastCmd:       PumpCommand{PumpOn: false, Reason: ReasonAutoHold},
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// WantsWaterReading reports whether a water-level measurement should be taken
// for the tick at now. The ultrasonic sensor is not sampled while a pulse is
// running; the debouncer keeps its state over those ticks. A pulse that is due
// to end at now is treated as finished.
func (m *Machine) WantsWaterReading(now time.Time) bool {
	if m.phase != PhaseWatering {
		return true
	}
	return m.phaseDone(now, m.cfg.MinRunDuration)
}

// phaseDone reports whether the current phase has lasted d, counted in whole
// ticks. Elapsed time is rounded to the nearest tick so that scheduling
// jitter cannot add or drop a tick; d is rounded up to a whole tick.
func (m *Machine) phaseDone(now time.Time, d time.Duration) bool {
	p := m.cfg.TickPeriod
	elapsed := (now.Sub(m.phaseSince) + p/2) / p
	need := (d + p - 1) / p
	return elapsed >= need
}

// Step advances the machine by one tick and returns the pump command together
// with the status snapshot for observers.
func (m *Machine) Step(in Input) (PumpCommand, Status) {
	if in.Water != nil {
		if in.Water.Err != nil {
			m.distanceCM = -1
		} else {
			m.distanceCM = in.Water.DistanceCM
		}
		m.debouncer.Update(in.Water.DistanceCM, in.Water.Err)
	}
	empty := m.debouncer.Empty()

	var auto PumpCommand
	switch {
	case empty:
		if !m.wasEmpty {
			m.counts.SafetyTrips++
		}
		m.resetCycle()
	case in.Override.Active:
		// Manual control freezes the cycle; release resumes from IDLE.
		m.counts.ManualTicks++
		m.resetCycle()
	default:
		auto = m.advance(in)
	}
	m.wasEmpty = empty

	cmd := Resolve(auto, empty, in.Override)
	m.lastCmd = cmd

	st := Status{
		Time:        in.Time,
		PumpOn:      cmd.PumpOn,
		Reason:      cmd.Reason,
		MoistureRaw: -1,
		MoisturePct: -1,
		DistanceCM:  m.distanceCM,
		WaterOK:     !empty,
		Mode:        m.mode,
		Phase:       m.phase,
		Override:    in.Override,
	}
	if in.MoistureErr == nil {
		st.MoistureRaw = in.Moisture
		st.MoisturePct = Percent(in.Moisture, m.cfg.DryThreshold, m.cfg.WetThreshold)
	}
	return cmd, st
}

// advance runs the automatic pulse-and-wait cycle.
func (m *Machine) advance(in Input) PumpCommand {
	now := in.Time

	switch m.phase {
	case PhaseWatering:
		if !m.phaseDone(now, m.cfg.MinRunDuration) {
			return PumpCommand{PumpOn: true, Reason: ReasonAutoDry}
		}
		m.phase = PhaseAbsorbing
		m.phaseSince = now
		return PumpCommand{PumpOn: false, Reason: ReasonAutoHold}
	case PhaseAbsorbing:
		if !m.phaseDone(now, m.cfg.AbsorptionDuration) {
			return PumpCommand{PumpOn: false, Reason: ReasonAutoHold}
		}
		m.resetCycle()
	}

	// IDLE: evaluate moisture.
	if in.MoistureErr != nil {
		m.mode = ModeHold
		return PumpCommand{PumpOn: false, Reason: ReasonAutoHold}
	}
	m.mode = m.hysteresis.Update(in.Moisture)
	reason := reasonForMode(m.mode)
	if !m.hysteresis.Watering() {
		return PumpCommand{PumpOn: false, Reason: reason}
	}

	m.phase = PhaseWatering
	m.phaseSince = now
	m.lastPulse = now
	m.counts.Pulses++
	return PumpCommand{PumpOn: true, Reason: reason}
}

func (m *Machine) resetCycle() {
	m.phase = PhaseIdle
	m.phaseSince = time.Time{}
}

func reasonForMode(mode Mode) Reason {
	switch mode {
	case ModeDry:
		return ReasonAutoDry
	case ModeWet:
		return ReasonAutoWet
	default:
		return ReasonAutoHold
	}
}

// Phase returns the current cycle phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Mode returns the moisture mode from the last evaluation.
func (m *Machine) Mode() Mode {
	return m.mode
}

// LastCommand returns the command produced by the most recent Step.
func (m *Machine) LastCommand() PumpCommand {
	return m.lastCmd
}

// LowWaterCount returns the debouncer's consecutive low-reading count.
func (m *Machine) LowWaterCount() int {
	return m.debouncer.LowCount()
}

// CountsSnapshot returns a copy of the occurrence counters.
func (m *Machine) CountsSnapshot() Counts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
		LastPulse: m.lastPulse,
	}
}
