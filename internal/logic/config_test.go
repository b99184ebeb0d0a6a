package logic

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"misordered thresholds", func(c *Config) { c.DryThreshold, c.WetThreshold = 1500, 2000 }, "dry_threshold"},
		{"equal thresholds", func(c *Config) { c.WetThreshold = c.DryThreshold }, "dry_threshold"},
		{"dry out of range", func(c *Config) { c.DryThreshold = 5000 }, "dry_threshold"},
		{"wet negative", func(c *Config) { c.WetThreshold = -1 }, "wet_threshold"},
		{"zero empty threshold", func(c *Config) { c.EmptyThresholdCM = 0 }, "empty_threshold_cm"},
		{"zero confirmations", func(c *Config) { c.LowWaterConfirmations = 0 }, "low_water_confirmations"},
		{"zero min run", func(c *Config) { c.MinRunDuration = 0 }, "min_run_duration"},
		{"negative absorption", func(c *Config) { c.AbsorptionDuration = -time.Second }, "absorption_duration"},
		{"zero tick", func(c *Config) { c.TickPeriod = 0 }, "tick_period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field: got %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Field: "dry_threshold", Reason: "must be greater than wet_threshold"}
	want := "config: dry_threshold: must be greater than wet_threshold"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
