package pim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/upb"
)

func TestNewEngineConfig_Defaults(t *testing.T) {
	cfg, err := NewEngineConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultAckTimeout, cfg.AckTimeout())
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, enableFrame, cfg.EnableFrame().Bytes())
	assert.NotNil(t, cfg.Decoder())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewEngineConfig_WithOptions(t *testing.T) {
	l := logger.NewMockLogger()
	decode := func([]byte) (*upb.Message, error) { return &upb.Message{}, nil }

	cfg, err := NewEngineConfig(
		WithAckTimeout(500*time.Millisecond),
		WithMaxAttempts(5),
		WithPollInterval(20*time.Millisecond),
		WithEnableBody([]byte{0x70, 0x03}),
		WithMessageDecoder(decode),
		WithLogger(l),
	)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.AckTimeout())
	assert.Equal(t, 5, cfg.MaxAttempts())
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, EncodeEnableFrame([]byte{0x70, 0x03}).Bytes(), cfg.EnableFrame().Bytes())
	assert.Same(t, l, cfg.GetLogger())
}

func TestNewEngineConfig_WithoutEnableFrame(t *testing.T) {
	cfg, err := NewEngineConfig(WithoutEnableFrame())
	require.NoError(t, err)
	assert.True(t, cfg.EnableFrame().IsZero())
}

func TestNewEngineConfig_EnableBodyCopied(t *testing.T) {
	body := []byte{0x70, 0x02}
	cfg, err := NewEngineConfig(WithEnableBody(body))
	require.NoError(t, err)

	body[1] = 0x00
	assert.Equal(t, enableFrame, cfg.EnableFrame().Bytes())
}

func TestNewEngineConfig_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  EngineOption
	}{
		{"ack timeout too small", WithAckTimeout(MinAckTimeout - time.Millisecond)},
		{"ack timeout too large", WithAckTimeout(MaxAckTimeout + time.Millisecond)},
		{"zero attempts", WithMaxAttempts(0)},
		{"too many attempts", WithMaxAttempts(MaxMaxAttempts + 1)},
		{"poll interval too small", WithPollInterval(time.Millisecond)},
		{"poll interval too large", WithPollInterval(2 * time.Second)},
		{"empty enable body", WithEnableBody(nil)},
		{"large enable body", WithEnableBody(make([]byte, MaxEnableBodySize+1))},
		{"nil decoder", WithMessageDecoder(nil)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewEngineConfig(tt.opt)
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
