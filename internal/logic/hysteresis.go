package logic

// Hysteresis classifies moisture readings against a dry-start and a wet-stop
// threshold. Readings inside the band never change the watering decision.
type Hysteresis struct {
	dry      int
	wet      int
	watering bool
}

// NewHysteresis creates a Hysteresis. dry must be greater than wet; this is
// enforced by Config.Validate.
func NewHysteresis(dry, wet int) *Hysteresis {
	return &Hysteresis{dry: dry, wet: wet}
}

// Update classifies raw and records the decision on a threshold crossing.
func (h *Hysteresis) Update(raw int) Mode {
	switch {
	case raw > h.dry:
		h.watering = true
		return ModeDry
	case raw < h.wet:
		h.watering = false
		return ModeWet
	default:
		return ModeHold
	}
}

// Watering returns the retained decision: true after the last crossing was dry.
func (h *Hysteresis) Watering() bool {
	return h.watering
}

// Percent maps raw onto 0..100 % (dry threshold = 0 %, wet threshold = 100 %).
// Display only; never used for control.
func Percent(raw, dry, wet int) int {
	if dry == wet {
		return 0
	}
	// Integer map() semantics, truncating toward zero.
	p := (raw - dry) * 100 / (wet - dry)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
