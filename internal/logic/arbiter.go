package logic

// Resolve merges the automatic decision with the safety flag and the manual
// override. Precedence is fixed: safety, then manual, then automatic.
func Resolve(auto PumpCommand, empty bool, o OverrideCommand) PumpCommand {
	if empty {
		return PumpCommand{PumpOn: false, Reason: ReasonSafetyCutoff}
	}
	if o.Active {
		return PumpCommand{PumpOn: o.PumpOn, Reason: ReasonManual}
	}
	return auto
}
