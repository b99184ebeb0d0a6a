package logic

import "testing"

var allAutoCommands = []PumpCommand{
	{PumpOn: true, Reason: ReasonAutoDry},
	{PumpOn: false, Reason: ReasonAutoWet},
	{PumpOn: true, Reason: ReasonAutoHold},
	{PumpOn: false, Reason: ReasonAutoHold},
}

var allOverrides = []OverrideCommand{
	{Active: false, PumpOn: false},
	{Active: false, PumpOn: true},
	{Active: true, PumpOn: false},
	{Active: true, PumpOn: true},
}

func TestResolveSafetyDominates(t *testing.T) {
	for _, auto := range allAutoCommands {
		for _, o := range allOverrides {
			got := Resolve(auto, true, o)
			if got.PumpOn || got.Reason != ReasonSafetyCutoff {
				t.Errorf("Resolve(%+v, empty, %+v) = %+v, want pump off with SAFETY_CUTOFF", auto, o, got)
			}
		}
	}
}

func TestResolveManualDominatesWhenNotEmpty(t *testing.T) {
	for _, auto := range allAutoCommands {
		for _, pumpOn := range []bool{true, false} {
			o := OverrideCommand{Active: true, PumpOn: pumpOn}
			got := Resolve(auto, false, o)
			if got.PumpOn != pumpOn || got.Reason != ReasonManual {
				t.Errorf("Resolve(%+v, not empty, %+v) = %+v, want pump=%v MANUAL", auto, o, got, pumpOn)
			}
		}
	}
}

func TestResolveAutomaticPassesThrough(t *testing.T) {
	inactive := []OverrideCommand{{}, {PumpOn: true}}
	for _, auto := range allAutoCommands {
		for _, o := range inactive {
			if got := Resolve(auto, false, o); got != auto {
				t.Errorf("Resolve(%+v, not empty, %+v) = %+v, want %+v", auto, o, got, auto)
			}
		}
	}
}
