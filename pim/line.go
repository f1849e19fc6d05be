package pim

import (
	"bytes"
	"fmt"

	"github.com/arloliu/go-upb/upb"
)

// Two-character markers at the start of lines sent by the PIM.
const (
	MarkerAck    = "PK" // previous frame acknowledged
	MarkerNak    = "PN" // previous frame not acknowledged
	MarkerReport = "PU" // unsolicited message report

	// Status lines the PIM emits around transmissions. They carry no
	// delivery outcome and classify as unrecognized.
	MarkerAccept = "PA"
	MarkerBusy   = "PB"
	MarkerError  = "PE"
)

// LineKind classifies one line received from the PIM.
type LineKind int

const (
	LineUnrecognized LineKind = iota
	LineAck
	LineNak
	LineUnsolicited
)

func (k LineKind) String() string {
	switch k {
	case LineAck:
		return "Ack"
	case LineNak:
		return "Nak"
	case LineUnsolicited:
		return "Unsolicited"
	default:
		return "Unrecognized"
	}
}

// MessageDecoder turns the payload of an unsolicited report (marker and
// checksum stripped) into a structured message.
type MessageDecoder func(payload []byte) (*upb.Message, error)

// InboundLine is the classification of one received line.
type InboundLine struct {
	Kind LineKind
	// Marker is the leading two characters of the line, if any.
	Marker string
	// Event is set when Kind is LineUnsolicited.
	Event *upb.Message
	// Err explains why a PU line was downgraded to LineUnrecognized.
	Err error
}

// ClassifyLine classifies a terminator-stripped line. A nil decode uses
// upb.DecodeMessage.
//
// Unsolicited reports whose hex, checksum or payload cannot be decoded are
// downgraded to LineUnrecognized; they never surface as errors.
func ClassifyLine(line []byte, decode MessageDecoder) InboundLine {
	if len(line) < 2 {
		return InboundLine{Kind: LineUnrecognized}
	}

	marker := string(line[:2])
	switch marker {
	case MarkerAck:
		return InboundLine{Kind: LineAck, Marker: marker}
	case MarkerNak:
		return InboundLine{Kind: LineNak, Marker: marker}
	case MarkerReport:
		ev, err := decodeReport(line[2:], decode)
		if err != nil {
			return InboundLine{Kind: LineUnrecognized, Marker: marker, Err: err}
		}

		return InboundLine{Kind: LineUnsolicited, Marker: marker, Event: ev}
	default:
		return InboundLine{Kind: LineUnrecognized, Marker: marker}
	}
}

func decodeReport(text []byte, decode MessageDecoder) (*upb.Message, error) {
	if decode == nil {
		decode = upb.DecodeMessage
	}

	data, err := DecodeHex(bytes.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: report has %d bytes", ErrMalformedHex, len(data))
	}
	if !ChecksumValid(data) {
		return nil, fmt.Errorf("%w: report % X", ErrBadChecksum, data)
	}

	ev, err := decode(data[:len(data)-1])
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("pim: decoder returned no message for % X", data)
	}

	return ev, nil
}
