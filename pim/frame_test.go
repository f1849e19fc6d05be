package pim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want byte
	}{
		{"empty", nil, 0x00},
		{"single", []byte{0x01}, 0xFF},
		{"enable", []byte{0x70, 0x02}, 0x8E},
		{"goto", scenarioBody, 0xB6},
		{"wraps", []byte{0xFF, 0xFF, 0xFF}, 0x03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.body)
			assert.Equal(t, tt.want, got)
			assert.True(t, ChecksumValid(append(append([]byte(nil), tt.body...), got)))
		})
	}
}

func TestChecksum_SumIsZero(t *testing.T) {
	body := make([]byte, 0, 256)
	for i := 0; i < 256; i++ {
		body = append(body, byte(i*7+3))

		var sum int
		for _, b := range body {
			sum += int(b)
		}
		sum += int(Checksum(body))
		require.Equal(t, 0, sum%256, "len %d", len(body))
	}
}

func TestChecksumValid(t *testing.T) {
	assert.True(t, ChecksumValid([]byte{0x08, 0x10, 0x02, 0x05, 0xFF, 0x22, 0x0A, 0xB6}))
	assert.False(t, ChecksumValid([]byte{0x08, 0x10, 0x02, 0x05, 0xFF, 0x22, 0x0A, 0xB7}))
	assert.True(t, ChecksumValid(nil))
}

func TestEncodeCommandFrame(t *testing.T) {
	frame := EncodeCommandFrame(scenarioBody)

	assert.Equal(t, scenarioFrame, frame.Bytes())
	assert.Equal(t, 1+2*len(scenarioBody)+2+1, frame.Len())
	assert.Equal(t, "<DC4>08100205FF220AB6<CR>", frame.String())
	assert.False(t, frame.IsZero())
}

func TestEncodeCommandFrame_UpperCaseHex(t *testing.T) {
	frame := EncodeCommandFrame([]byte{0xAB, 0xCD, 0xEF})

	// AB+CD+EF = 0x267, checksum 0x99
	assert.Equal(t, append(append([]byte{ControlTransmit}, "ABCDEF99"...), CR), frame.Bytes())
}

func TestEncodeEnableFrame(t *testing.T) {
	frame := EncodeEnableFrame(DefaultEnableBody)

	assert.Equal(t, enableFrame, frame.Bytes())
	assert.Equal(t, "<ETB>70028E<LF>", frame.String())
}

func TestFrame_BytesIsCopy(t *testing.T) {
	frame := EncodeCommandFrame(scenarioBody)

	b := frame.Bytes()
	b[1] = 'X'
	assert.Equal(t, scenarioFrame, frame.Bytes())
	assert.True(t, Frame{}.IsZero())
}

func TestDecodeHex(t *testing.T) {
	data, err := DecodeHex([]byte("08100205ff220aB6"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x10, 0x02, 0x05, 0xFF, 0x22, 0x0A, 0xB6}, data)

	_, err = DecodeHex([]byte("081"))
	require.ErrorIs(t, err, ErrMalformedHex)

	_, err = DecodeHex([]byte("0G"))
	require.ErrorIs(t, err, ErrMalformedHex)

	data, err = DecodeHex(nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}
