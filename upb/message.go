package upb

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// headerSize is the control word plus network, destination, source and MDID.
	headerSize = 6

	// MaxArguments is the largest argument count that fits the 5-bit length field.
	MaxArguments = 0x1F - headerSize - 1

	// DefaultSourceID is the source ID used by NewDeviceCommand and NewLinkCommand.
	DefaultSourceID byte = 0xFF

	// BroadcastID addresses every device on a network.
	BroadcastID byte = 0x00
)

var (
	// ErrShortMessage is returned when a payload is smaller than a UPB header.
	ErrShortMessage = errors.New("upb: message shorter than header")

	// ErrLengthMismatch is returned when the control word length field
	// disagrees with the payload size.
	ErrLengthMismatch = errors.New("upb: packet length mismatch")

	// ErrTooManyArguments is returned when a message has more than MaxArguments.
	ErrTooManyArguments = errors.New("upb: too many arguments")
)

// AckRequest is the set of acknowledgement bits in the control word.
type AckRequest byte

const (
	AckPulse   AckRequest = 0x01 // receiver answers with an ACK pulse
	IDPulse    AckRequest = 0x02 // receiver answers with an ID pulse
	AckMessage AckRequest = 0x04 // receiver answers with an ACK message
)

// ControlWord is the decoded two-byte UPB control word.
type ControlWord struct {
	Link             bool       // destination is a link ID, not a unit ID
	RepeaterRequest  byte       // 0-3
	Length           byte       // packet length including checksum, 0-31
	AckRequest       AckRequest // combination of AckPulse, IDPulse, AckMessage
	TransmitCount    byte       // 0-3, number of extra transmissions
	TransmitSequence byte       // 0-3, which transmission this is
}

// ParseControlWord decodes the two control word bytes.
func ParseControlWord(hi, lo byte) ControlWord {
	return ControlWord{
		Link:             hi&0x80 != 0,
		RepeaterRequest:  (hi >> 5) & 0x03,
		Length:           hi & 0x1F,
		AckRequest:       AckRequest((lo >> 4) & 0x07),
		TransmitCount:    (lo >> 2) & 0x03,
		TransmitSequence: lo & 0x03,
	}
}

// Bytes encodes the control word.
func (cw ControlWord) Bytes() (hi, lo byte) {
	if cw.Link {
		hi |= 0x80
	}
	hi |= (cw.RepeaterRequest & 0x03) << 5
	hi |= cw.Length & 0x1F

	lo |= (byte(cw.AckRequest) & 0x07) << 4
	lo |= (cw.TransmitCount & 0x03) << 2
	lo |= cw.TransmitSequence & 0x03

	return hi, lo
}

// Message is one UPB packet without its checksum.
type Message struct {
	Control       ControlWord
	NetworkID     byte
	DestinationID byte
	SourceID      byte
	Command       Command
	Arguments     []byte
}

// NewDeviceCommand builds a message addressed to a single unit, requesting an
// ACK pulse.
func NewDeviceCommand(networkID, unitID byte, cmd Command, args ...byte) *Message {
	return &Message{
		Control:       ControlWord{AckRequest: AckPulse},
		NetworkID:     networkID,
		DestinationID: unitID,
		SourceID:      DefaultSourceID,
		Command:       cmd,
		Arguments:     append([]byte(nil), args...),
	}
}

// NewLinkCommand builds a message addressed to a link (scene). Links are
// answered by many devices, so no acknowledgement is requested.
func NewLinkCommand(networkID, linkID byte, cmd Command, args ...byte) *Message {
	return &Message{
		Control:       ControlWord{Link: true},
		NetworkID:     networkID,
		DestinationID: linkID,
		SourceID:      DefaultSourceID,
		Command:       cmd,
		Arguments:     append([]byte(nil), args...),
	}
}

// Encode returns the packet bytes without checksum, with the length field of
// the control word filled in.
func (m *Message) Encode() ([]byte, error) {
	if len(m.Arguments) > MaxArguments {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyArguments, len(m.Arguments), MaxArguments)
	}

	cw := m.Control
	cw.Length = byte(headerSize + len(m.Arguments) + 1) //nolint:gosec // bounded by MaxArguments

	buf := make([]byte, headerSize, headerSize+len(m.Arguments))
	buf[0], buf[1] = cw.Bytes()
	buf[2] = m.NetworkID
	buf[3] = m.DestinationID
	buf[4] = m.SourceID
	buf[5] = byte(m.Command)

	return append(buf, m.Arguments...), nil
}

// IsLink reports whether the destination is a link ID.
func (m *Message) IsLink() bool {
	return m.Control.Link
}

// Level returns the light level carried by Goto and DeviceStateReport
// messages. ok is false for other commands or when no argument is present.
func (m *Message) Level() (level byte, ok bool) {
	switch m.Command {
	case CmdGoto, CmdDeviceStateReport, CmdFadeStart:
		if len(m.Arguments) > 0 {
			return m.Arguments[0], true
		}
	}

	return 0, false
}

// String renders the message for logs, e.g.
// "Goto net=2 dst=5 src=255 args=[0A]".
func (m *Message) String() string {
	var sb strings.Builder
	sb.WriteString(m.Command.String())
	if m.IsLink() {
		fmt.Fprintf(&sb, " net=%d link=%d src=%d", m.NetworkID, m.DestinationID, m.SourceID)
	} else {
		fmt.Fprintf(&sb, " net=%d dst=%d src=%d", m.NetworkID, m.DestinationID, m.SourceID)
	}
	if len(m.Arguments) > 0 {
		fmt.Fprintf(&sb, " args=[% X]", m.Arguments)
	}

	return sb.String()
}

// DecodeMessage decodes a UPB packet whose checksum has already been
// validated and stripped.
func DecodeMessage(payload []byte) (*Message, error) {
	if len(payload) < headerSize {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrShortMessage, len(payload), headerSize)
	}

	cw := ParseControlWord(payload[0], payload[1])
	if int(cw.Length) != len(payload)+1 {
		return nil, fmt.Errorf("%w: length field %d, payload %d bytes + checksum", ErrLengthMismatch, cw.Length, len(payload))
	}

	msg := &Message{
		Control:       cw,
		NetworkID:     payload[2],
		DestinationID: payload[3],
		SourceID:      payload[4],
		Command:       Command(payload[5]),
	}
	if len(payload) > headerSize {
		msg.Arguments = append([]byte(nil), payload[headerSize:]...)
	}

	return msg, nil
}
