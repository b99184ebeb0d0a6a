package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/irrigator/internal/adc"
	"github.com/sweeney/irrigator/internal/gpio"
	"github.com/sweeney/irrigator/internal/logic"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeOverride struct {
	cmd logic.OverrideCommand
}

func (f *fakeOverride) Override() logic.OverrideCommand { return f.cmd }

type recordingSink struct {
	got []logic.Status
	err error
}

func (s *recordingSink) Publish(st logic.Status) error {
	s.got = append(s.got, st)
	return s.err
}

func testConfig() logic.Config {
	cfg := logic.DefaultConfig()
	cfg.MinRunDuration = time.Second
	cfg.AbsorptionDuration = time.Second
	cfg.TickPeriod = time.Second
	return cfg
}

type rig struct {
	clock    *fakeClock
	moisture *adc.FakeMoisture
	water    *gpio.FakeRangefinder
	relay    *gpio.FakeRelay
	override *fakeOverride
	sink     *recordingSink
	ctrl     *Controller
}

func newRig(t *testing.T, cfg logic.Config, moisture *adc.FakeMoisture, water *gpio.FakeRangefinder) *rig {
	t.Helper()
	r := &rig{
		clock:    &fakeClock{t: time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)},
		moisture: moisture,
		water:    water,
		relay:    &gpio.FakeRelay{},
		override: &fakeOverride{},
		sink:     &recordingSink{},
	}
	ctrl, err := New(cfg, Options{
		Moisture: r.moisture,
		Water:    r.water,
		Pump:     r.relay,
		Override: r.override,
		Sink:     r.sink,
		Now:      r.clock.Now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.ctrl = ctrl
	return r
}

// tick runs one RunOnce and then advances the clock by one period.
func (r *rig) tick(t *testing.T) logic.Status {
	t.Helper()
	st, err := r.ctrl.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	r.clock.Advance(time.Second)
	return st
}

func TestPulseThenAbsorbThenWet(t *testing.T) {
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(2200, 2200, 1400),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))

	st := r.tick(t)
	if !st.PumpOn || st.Phase != logic.PhaseWatering || st.Mode != logic.ModeDry {
		t.Errorf("tick 1: got %+v", st)
	}

	st = r.tick(t)
	if st.PumpOn || st.Phase != logic.PhaseAbsorbing {
		t.Errorf("tick 2: got %+v", st)
	}

	st = r.tick(t)
	if st.PumpOn || st.Phase != logic.PhaseIdle || st.Mode != logic.ModeWet || st.Reason != logic.ReasonAutoWet {
		t.Errorf("tick 3: got %+v", st)
	}

	want := []bool{true, false, false}
	if len(r.relay.States) != len(want) {
		t.Fatalf("relay states: got %v, want %v", r.relay.States, want)
	}
	for i := range want {
		if r.relay.States[i] != want[i] {
			t.Errorf("relay state %d: got %v, want %v", i, r.relay.States[i], want[i])
		}
	}
	if len(r.sink.got) != 3 {
		t.Errorf("sink: got %d statuses, want 3", len(r.sink.got))
	}
}

func TestWaterLevelNotReadDuringPulse(t *testing.T) {
	cfg := testConfig()
	cfg.MinRunDuration = 3 * time.Second
	r := newRig(t, cfg,
		adc.NewFakeMoisture(2500),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))

	wantReads := []int{1, 1, 1, 2}
	for i, want := range wantReads {
		r.tick(t)
		if r.water.Reads != want {
			t.Errorf("after tick %d: reads=%d, want %d", i+1, r.water.Reads, want)
		}
	}
}

func TestSafetyCutoffAfterConfirmations(t *testing.T) {
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(2200),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 20}))

	r.tick(t)
	r.tick(t)
	st := r.tick(t)

	if st.PumpOn {
		t.Error("pump should be off")
	}
	if st.Reason != logic.ReasonSafetyCutoff {
		t.Errorf("reason: got %s, want %s", st.Reason, logic.ReasonSafetyCutoff)
	}
	if st.WaterOK {
		t.Error("WaterOK should be false")
	}
	if got := r.ctrl.Counts().SafetyTrips; got != 1 {
		t.Errorf("SafetyTrips: got %d, want 1", got)
	}
}

func TestManualOverrideEveryTick(t *testing.T) {
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(1400),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))
	r.override.cmd = logic.OverrideCommand{Active: true, PumpOn: true}

	for i := 0; i < 5; i++ {
		st := r.tick(t)
		if !st.PumpOn || st.Reason != logic.ReasonManual {
			t.Fatalf("tick %d: got on=%v reason=%s", i+1, st.PumpOn, st.Reason)
		}
	}

	r.override.cmd = logic.OverrideCommand{}
	st := r.tick(t)
	if st.PumpOn || st.Reason != logic.ReasonAutoWet {
		t.Errorf("after release: got on=%v reason=%s", st.PumpOn, st.Reason)
	}
}

func TestNilOverrideIsInactive(t *testing.T) {
	relay := &gpio.FakeRelay{}
	ctrl, err := New(testConfig(), Options{
		Moisture: adc.NewFakeMoisture(2200),
		Water:    gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}),
		Pump:     relay,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st, err := ctrl.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if st.Reason != logic.ReasonAutoDry || !relay.On() {
		t.Errorf("got %+v", st)
	}
}

func TestMoistureReadError(t *testing.T) {
	moisture := &adc.FakeMoisture{Samples: []adc.MoistureSample{{Err: errors.New("nack")}}}
	r := newRig(t, testConfig(), moisture, gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))

	st := r.tick(t)
	if st.PumpOn || st.Mode != logic.ModeHold || st.MoistureRaw != -1 {
		t.Errorf("got %+v", st)
	}
}

func TestWaterReadErrorCountsAsLow(t *testing.T) {
	readErr := errors.New("no echo")
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(1400),
		gpio.NewFakeRangefinder(gpio.RangeSample{Err: readErr}))

	var st logic.Status
	for i := 0; i < 3; i++ {
		st = r.tick(t)
	}
	if st.Reason != logic.ReasonSafetyCutoff || st.DistanceCM != -1 {
		t.Errorf("got %+v", st)
	}
}

func TestPumpErrorReturnedButStatusPublished(t *testing.T) {
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(2200),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))
	r.relay.SetError = errors.New("line busy")

	st, err := r.ctrl.RunOnce()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, r.relay.SetError) {
		t.Errorf("error should wrap relay error: %v", err)
	}
	if !st.PumpOn {
		t.Error("command should still be pump on")
	}
	if len(r.sink.got) != 1 {
		t.Errorf("sink: got %d statuses, want 1", len(r.sink.got))
	}
}

func TestSinkErrorDoesNotAffectControl(t *testing.T) {
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(2200),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))
	r.sink.err = errors.New("broker down")

	st, err := r.ctrl.RunOnce()
	if err != nil {
		t.Fatalf("sink failure leaked into RunOnce: %v", err)
	}
	if !st.PumpOn || !r.relay.On() {
		t.Error("pump should be on despite sink failure")
	}
	if r.ctrl.Status() != st {
		t.Error("Status() should return last tick's status")
	}
}

func TestStopSwitchesPumpOff(t *testing.T) {
	r := newRig(t, testConfig(),
		adc.NewFakeMoisture(2200),
		gpio.NewFakeRangefinder(gpio.RangeSample{CM: 5}))
	r.tick(t)
	if !r.relay.On() {
		t.Fatal("pump should be on")
	}

	if err := r.ctrl.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.relay.On() {
		t.Error("pump should be off after Stop")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.WetThreshold = cfg.DryThreshold + 1

	_, err := New(cfg, Options{
		Moisture: adc.NewFakeMoisture(0),
		Water:    gpio.NewFakeRangefinder(),
		Pump:     &gpio.FakeRelay{},
	})
	var ce *logic.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *logic.ConfigError, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(testConfig(), Options{}); err == nil {
		t.Error("expected error with no collaborators")
	}
}
