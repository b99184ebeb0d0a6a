package logic

// Debouncer turns noisy water-level readings into a stable "tank empty" flag.
// A reading counts as low when it is beyond the empty threshold or when the
// measurement failed; the tank is empty once enough consecutive lows are seen.
type Debouncer struct {
	emptyThresholdCM int
	confirmations    int
	lowCount         int
}

// NewDebouncer creates a Debouncer for the given threshold and number of
// consecutive confirmations.
func NewDebouncer(emptyThresholdCM, confirmations int) *Debouncer {
	return &Debouncer{
		emptyThresholdCM: emptyThresholdCM,
		confirmations:    confirmations,
	}
}

// Update feeds one reading and returns whether the tank is considered empty.
func (d *Debouncer) Update(distanceCM int, err error) bool {
	if err != nil || distanceCM > d.emptyThresholdCM {
		d.lowCount++
	} else {
		d.lowCount = 0
	}
	return d.Empty()
}

// Empty reports the debounced state without consuming a reading.
func (d *Debouncer) Empty() bool {
	return d.lowCount >= d.confirmations
}

// LowCount returns the current run of consecutive low readings.
func (d *Debouncer) LowCount() int {
	return d.lowCount
}
