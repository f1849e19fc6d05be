package upb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		want []byte
	}{
		{"goto", Goto(2, 5, 10), []byte{0x08, 0x10, 0x02, 0x05, 0xFF, 0x22, 0x0A}},
		{"goto with rate", GotoWithRate(2, 5, 50, 3), []byte{0x09, 0x10, 0x02, 0x05, 0xFF, 0x22, 0x32, 0x03}},
		{"activate", Activate(2, 9), []byte{0x87, 0x00, 0x02, 0x09, 0xFF, 0x20}},
		{"deactivate", Deactivate(2, 9), []byte{0x87, 0x00, 0x02, 0x09, 0xFF, 0x21}},
		{"report state", ReportState(1, 7), []byte{0x07, 0x10, 0x01, 0x07, 0xFF, 0x30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := tt.msg.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, body)
		})
	}
}
