package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		ok    bool
	}{
		{"debug", DebugLevel, true},
		{"info", InfoLevel, true},
		{"warn", WarnLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"fatal", FatalLevel, true},
		{"verbose", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSlogLogger_JSON(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, InfoLevel, false)

	l.Debug("hidden")
	l.Info("command acknowledged", "attempts", 2)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "command acknowledged", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.EqualValues(t, 2, rec["attempts"])
	assert.Contains(t, rec, "ts")
}

func TestSlogLogger_LevelAndWith(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	l := NewSlogWithWriter(&buf, WarnLevel, false)
	assert.Equal(t, WarnLevel, l.Level())

	child := l.With("component", "pim")
	child.Info("dropped")
	assert.Zero(t, buf.Len())

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, child.Level())

	child.Debug("frame written")
	assert.Contains(t, buf.String(), `"component":"pim"`)
	assert.Contains(t, buf.String(), "frame written")
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerolog(&buf, InfoLevel, false)

	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.With("port", "/dev/ttyUSB0").Warn("retries exhausted",
		"attempts", 3,
		"timeout", time.Second,
		"error", errors.New("nak"),
		"dangling",
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "retries exhausted", rec["message"])
	assert.Equal(t, "/dev/ttyUSB0", rec["port"])
	assert.EqualValues(t, 3, rec["attempts"])
	assert.Equal(t, "nak", rec["error"])
	assert.Equal(t, "!MISSING", rec["dangling"])

	l.SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, l.Level())
}

func TestDefaultLogger(t *testing.T) {
	orig := GetLogger()
	t.Cleanup(func() { SetLogger(orig) })

	m := NewMockLogger()
	m.On("Info", "hello", []any{"k", 1}).Return()
	SetLogger(m)

	Info("hello", "k", 1)
	m.AssertExpectations(t)

	SetLogger(nil)
	assert.Same(t, m, GetLogger())
}
