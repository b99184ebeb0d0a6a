package logic

import "time"

// Config holds the controller tunables. It is loaded once and never mutated.
type Config struct {
	EmptyThresholdCM      int
	DryThreshold          int
	WetThreshold          int
	LowWaterConfirmations int
	MinRunDuration        time.Duration
	AbsorptionDuration    time.Duration
	TickPeriod            time.Duration
}

// DefaultConfig returns the calibration the controller ships with.
func DefaultConfig() Config {
	return Config{
		EmptyThresholdCM:      10,
		DryThreshold:          2100,
		WetThreshold:          1550,
		LowWaterConfirmations: 3,
		MinRunDuration:        3 * time.Second,
		AbsorptionDuration:    5 * time.Second,
		TickPeriod:            500 * time.Millisecond,
	}
}

// Validate returns a *ConfigError describing the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.EmptyThresholdCM <= 0:
		return &ConfigError{Field: "empty_threshold_cm", Reason: "must be > 0"}
	case c.DryThreshold < 0 || c.DryThreshold > MoistureMax:
		return &ConfigError{Field: "dry_threshold", Reason: "must be within [0, 4095]"}
	case c.WetThreshold < 0 || c.WetThreshold > MoistureMax:
		return &ConfigError{Field: "wet_threshold", Reason: "must be within [0, 4095]"}
	case c.DryThreshold <= c.WetThreshold:
		return &ConfigError{Field: "dry_threshold", Reason: "must be greater than wet_threshold"}
	case c.LowWaterConfirmations < 1:
		return &ConfigError{Field: "low_water_confirmations", Reason: "must be >= 1"}
	case c.MinRunDuration <= 0:
		return &ConfigError{Field: "min_run_duration", Reason: "must be > 0"}
	case c.AbsorptionDuration <= 0:
		return &ConfigError{Field: "absorption_duration", Reason: "must be > 0"}
	case c.TickPeriod <= 0:
		return &ConfigError{Field: "tick_period", Reason: "must be > 0"}
	}
	return nil
}
