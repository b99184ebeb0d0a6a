package adc

import "errors"

// MoistureSample is a single scripted ADC reading.
type MoistureSample struct {
	Raw int
	Err error
}

// FakeMoisture is a test double that returns scripted moisture readings.
type FakeMoisture struct {
	// Samples contains scripted readings. Each call consumes the next one;
	// once exhausted the last sample repeats.
	Samples []MoistureSample

	index  int
	Closed bool
}

// NewFakeMoisture creates a FakeMoisture returning the given raw values.
func NewFakeMoisture(raws ...int) *FakeMoisture {
	f := &FakeMoisture{}
	for _, r := range raws {
		f.Samples = append(f.Samples, MoistureSample{Raw: r})
	}
	return f
}

// ReadMoisture returns the next scripted sample.
func (f *FakeMoisture) ReadMoisture() (int, error) {
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.Raw, s.Err
}

// Close marks the sensor as closed.
func (f *FakeMoisture) Close() error {
	f.Closed = true
	return nil
}
