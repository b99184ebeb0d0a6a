package logic

import "testing"

func TestHysteresisClassification(t *testing.T) {
	tests := []struct {
		raw  int
		want Mode
	}{
		{4095, ModeDry},
		{2101, ModeDry},
		{2100, ModeHold},
		{1800, ModeHold},
		{1550, ModeHold},
		{1549, ModeWet},
		{0, ModeWet},
	}

	for _, tt := range tests {
		h := NewHysteresis(2100, 1550)
		if got := h.Update(tt.raw); got != tt.want {
			t.Errorf("Update(%d): got %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestHysteresisInitiallyNotWatering(t *testing.T) {
	h := NewHysteresis(2100, 1550)
	if h.Watering() {
		t.Error("new hysteresis should not be watering")
	}
	h.Update(1800)
	if h.Watering() {
		t.Error("in-band reading must not start watering from the initial state")
	}
}

func TestHysteresisHoldRetainsDecision(t *testing.T) {
	h := NewHysteresis(2100, 1550)

	h.Update(2500)
	for _, raw := range []int{2100, 1900, 1551, 1550, 2000} {
		if mode := h.Update(raw); mode != ModeHold {
			t.Errorf("Update(%d): expected HOLD, got %s", raw, mode)
		}
		if !h.Watering() {
			t.Errorf("Update(%d): in-band reading dropped the dry decision", raw)
		}
	}

	h.Update(1000)
	for _, raw := range []int{1550, 1800, 2100} {
		h.Update(raw)
		if h.Watering() {
			t.Errorf("Update(%d): in-band reading flipped wet decision to dry", raw)
		}
	}
}

func TestHysteresisNoChatterAroundSingleThreshold(t *testing.T) {
	h := NewHysteresis(2100, 1550)
	h.Update(2200) // dry, watering

	// Noise around the dry threshold must not stop watering.
	changes := 0
	prev := h.Watering()
	for _, raw := range []int{2099, 2101, 2098, 2102, 2100, 2099} {
		h.Update(raw)
		if h.Watering() != prev {
			changes++
			prev = h.Watering()
		}
	}
	if changes != 0 {
		t.Errorf("expected no decision changes, got %d", changes)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		raw  int
		want int
	}{
		{2100, 0},
		{1550, 100},
		{1825, 50},
		{2200, 0},   // drier than dry clamps to 0
		{1400, 100}, // wetter than wet clamps to 100
		{4095, 0},
		{0, 100},
	}

	for _, tt := range tests {
		if got := Percent(tt.raw, 2100, 1550); got != tt.want {
			t.Errorf("Percent(%d): got %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestPercentDegenerateThresholds(t *testing.T) {
	if got := Percent(1000, 1500, 1500); got != 0 {
		t.Errorf("expected 0 for equal thresholds, got %d", got)
	}
}
