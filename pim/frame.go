package pim

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Control and terminator bytes of the PIM wire format.
const (
	// ControlTransmit starts a frame that asks the PIM to transmit a UPB packet.
	ControlTransmit byte = 0x14
	// ControlEnable starts a frame that writes a PIM register.
	ControlEnable byte = 0x17

	CR byte = 0x0D
	LF byte = 0x0A
)

const upperHex = "0123456789ABCDEF"

// Frame is one transmittable unit: control byte, upper-case hex body, hex
// checksum and terminator.
//
// A Frame is immutable once encoded; retransmissions reuse the same bytes.
type Frame struct {
	data []byte
}

// Bytes returns a copy of the frame bytes.
func (f Frame) Bytes() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)

	return out
}

// Len returns the frame size in bytes.
func (f Frame) Len() int {
	return len(f.data)
}

// IsZero reports whether the frame is empty.
func (f Frame) IsZero() bool {
	return len(f.data) == 0
}

// String renders the frame with its control bytes spelled out, e.g.
// "<DC4>08100205FF220AB6<CR>".
func (f Frame) String() string {
	var sb strings.Builder
	for _, b := range f.data {
		switch b {
		case ControlTransmit:
			sb.WriteString("<DC4>")
		case ControlEnable:
			sb.WriteString("<ETB>")
		case CR:
			sb.WriteString("<CR>")
		case LF:
			sb.WriteString("<LF>")
		default:
			sb.WriteByte(b)
		}
	}

	return sb.String()
}

// Checksum returns the byte that makes the sum of body and checksum zero
// modulo 256.
func Checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum += b
	}

	return -sum
}

// ChecksumValid reports whether data, a body followed by its checksum byte,
// sums to zero modulo 256.
func ChecksumValid(data []byte) bool {
	var sum byte
	for _, b := range data {
		sum += b
	}

	return sum == 0
}

// EncodeCommandFrame returns the transmit frame for body:
//
//	0x14 ++ HEX(body) ++ HEX(Checksum(body)) ++ CR
func EncodeCommandFrame(body []byte) Frame {
	return encodeFrame(ControlTransmit, body, CR)
}

// EncodeEnableFrame returns the register/enable frame for body:
//
//	0x17 ++ HEX(body) ++ HEX(Checksum(body)) ++ LF
func EncodeEnableFrame(body []byte) Frame {
	return encodeFrame(ControlEnable, body, LF)
}

func encodeFrame(control byte, body []byte, terminator byte) Frame {
	buf := make([]byte, 0, 1+2*len(body)+2+1)
	buf = append(buf, control)
	buf = appendUpperHex(buf, body...)
	buf = appendUpperHex(buf, Checksum(body))
	buf = append(buf, terminator)

	return Frame{data: buf}
}

func appendUpperHex(dst []byte, src ...byte) []byte {
	for _, b := range src {
		dst = append(dst, upperHex[b>>4], upperHex[b&0x0F])
	}

	return dst
}

// DecodeHex decodes ASCII hex text (either case). Odd-length input or
// non-hex characters return ErrMalformedHex.
func DecodeHex(text []byte) ([]byte, error) {
	out := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(out, text); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHex, err)
	}

	return out, nil
}
