package upb

import (
	"fmt"
	"strings"
)

// Command is a UPB Message Data ID (MDID).
type Command byte

// Core commands.
const (
	CmdNull                Command = 0x00
	CmdWriteEnable         Command = 0x01
	CmdWriteProtect        Command = 0x02
	CmdStartSetup          Command = 0x03
	CmdStopSetup           Command = 0x04
	CmdGetSetupTime        Command = 0x05
	CmdAutoAddress         Command = 0x06
	CmdGetDeviceStatus     Command = 0x07
	CmdSetDeviceControl    Command = 0x08
	CmdAddLink             Command = 0x0B
	CmdDeleteLink          Command = 0x0C
	CmdTransmitThisMessage Command = 0x0D
	CmdDeviceReset         Command = 0x0E
	CmdGetDeviceSignature  Command = 0x0F
	CmdGetRegisterValue    Command = 0x10
	CmdSetRegisterValue    Command = 0x11
)

// Device control commands.
const (
	CmdActivate    Command = 0x20
	CmdDeactivate  Command = 0x21
	CmdGoto        Command = 0x22
	CmdFadeStart   Command = 0x23
	CmdFadeStop    Command = 0x24
	CmdBlink       Command = 0x25
	CmdIndicate    Command = 0x26
	CmdToggle      Command = 0x27
	CmdReportState Command = 0x30
	CmdStoreState  Command = 0x31
)

// Core reports, sent by devices.
const (
	CmdAckResponse           Command = 0x80
	CmdSetupTimeReport       Command = 0x85
	CmdDeviceStateReport     Command = 0x86
	CmdDeviceStatusReport    Command = 0x87
	CmdDeviceSignatureReport Command = 0x8F
	CmdRegisterValuesReport  Command = 0x90
	CmdRAMValuesReport       Command = 0x91
	CmdRawDataReport         Command = 0x92
	CmdHeartbeatReport       Command = 0x93
)

var commandNames = map[Command]string{
	CmdNull:                  "Null",
	CmdWriteEnable:           "WriteEnable",
	CmdWriteProtect:          "WriteProtect",
	CmdStartSetup:            "StartSetup",
	CmdStopSetup:             "StopSetup",
	CmdGetSetupTime:          "GetSetupTime",
	CmdAutoAddress:           "AutoAddress",
	CmdGetDeviceStatus:       "GetDeviceStatus",
	CmdSetDeviceControl:      "SetDeviceControl",
	CmdAddLink:               "AddLink",
	CmdDeleteLink:            "DeleteLink",
	CmdTransmitThisMessage:   "TransmitThisMessage",
	CmdDeviceReset:           "DeviceReset",
	CmdGetDeviceSignature:    "GetDeviceSignature",
	CmdGetRegisterValue:      "GetRegisterValue",
	CmdSetRegisterValue:      "SetRegisterValue",
	CmdActivate:              "Activate",
	CmdDeactivate:            "Deactivate",
	CmdGoto:                  "Goto",
	CmdFadeStart:             "FadeStart",
	CmdFadeStop:              "FadeStop",
	CmdBlink:                 "Blink",
	CmdIndicate:              "Indicate",
	CmdToggle:                "Toggle",
	CmdReportState:           "ReportState",
	CmdStoreState:            "StoreState",
	CmdAckResponse:           "AckResponse",
	CmdSetupTimeReport:       "SetupTimeReport",
	CmdDeviceStateReport:     "DeviceStateReport",
	CmdDeviceStatusReport:    "DeviceStatusReport",
	CmdDeviceSignatureReport: "DeviceSignatureReport",
	CmdRegisterValuesReport:  "RegisterValuesReport",
	CmdRAMValuesReport:       "RAMValuesReport",
	CmdRawDataReport:         "RawDataReport",
	CmdHeartbeatReport:       "HeartbeatReport",
}

// String returns the command name, or "Command(0xNN)" for unknown MDIDs.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}

	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// IsReport reports whether c is in the core report range (0x80-0x9F).
func (c Command) IsReport() bool {
	return c >= 0x80 && c <= 0x9F
}

// ParseCommand resolves a case-insensitive command name such as "goto" or
// "Activate" to its MDID.
func ParseCommand(name string) (Command, error) {
	for cmd, n := range commandNames {
		if strings.EqualFold(n, name) {
			return cmd, nil
		}
	}

	return 0, fmt.Errorf("upb: unknown command %q", name)
}
