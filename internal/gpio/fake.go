package gpio

import "errors"

// FakeRelay is a test double that records every pump command.
type FakeRelay struct {
	// States holds each value passed to SetPump, in order.
	States []bool

	// SetError, if set, is returned by SetPump. The state is not recorded.
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// SetPump records the requested state.
func (f *FakeRelay) SetPump(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// On reports the last recorded state. A relay that was never set is off.
func (f *FakeRelay) On() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close switches the relay off and marks it closed.
func (f *FakeRelay) Close() error {
	f.States = append(f.States, false)
	f.Closed = true
	return nil
}

// RangeSample is a single scripted ultrasonic measurement.
type RangeSample struct {
	CM  int
	Err error
}

// FakeRangefinder is a test double that returns scripted distances.
type FakeRangefinder struct {
	// Samples contains scripted measurements to return.
	// Each call to ReadWaterDistance() consumes the next sample.
	Samples []RangeSample

	// Reads counts calls to ReadWaterDistance.
	Reads int

	index  int
	Closed bool
}

// NewFakeRangefinder creates a FakeRangefinder with the given samples.
func NewFakeRangefinder(samples ...RangeSample) *FakeRangefinder {
	return &FakeRangefinder{Samples: samples}
}

// ReadWaterDistance returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeRangefinder) ReadWaterDistance() (int, error) {
	f.Reads++
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.CM, s.Err
}

// Close marks the rangefinder as closed.
func (f *FakeRangefinder) Close() error {
	f.Closed = true
	return nil
}
