// Package upb encodes and decodes Universal Powerline Bus (UPB) packets.
//
// A UPB packet on the wire (inside a PIM frame) is laid out as:
//
//	[Control Word(2)][Network ID][Destination ID][Source ID][Message Data ID][Arguments(0-24)][Checksum]
//
// The control word carries the link bit, repeater request, packet length
// (including the checksum byte), acknowledgement request bits, and the
// transmit count and sequence.
//
// The package plays two roles around the delivery engine in package pim:
//
//   - Message.Encode builds the opaque command body handed to pim.Engine.Submit.
//     The checksum is appended by the PIM frame codec, not here.
//   - DecodeMessage turns the payload of an unsolicited "PU" report into a
//     structured Message.
//
// Example:
//
//	msg := upb.NewDeviceCommand(2, 5, upb.CmdGoto, 10)
//	body, err := msg.Encode() // 08 10 02 05 FF 22 0A
package upb
