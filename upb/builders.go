package upb

// MaxLevel is the highest dimming level.
const MaxLevel = 100

// Goto sets unit to level (0-100) at the device's default fade rate.
func Goto(networkID, unitID, level byte) *Message {
	return NewDeviceCommand(networkID, unitID, CmdGoto, level)
}

// GotoWithRate sets unit to level using fade rate index rate.
func GotoWithRate(networkID, unitID, level, rate byte) *Message {
	return NewDeviceCommand(networkID, unitID, CmdGoto, level, rate)
}

// Activate activates link (scene) linkID.
func Activate(networkID, linkID byte) *Message {
	return NewLinkCommand(networkID, linkID, CmdActivate)
}

// Deactivate deactivates link (scene) linkID.
func Deactivate(networkID, linkID byte) *Message {
	return NewLinkCommand(networkID, linkID, CmdDeactivate)
}

// ReportState asks unit to answer with a DeviceStateReport.
func ReportState(networkID, unitID byte) *Message {
	return NewDeviceCommand(networkID, unitID, CmdReportState)
}
