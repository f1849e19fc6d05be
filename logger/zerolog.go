package logger

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger is a Logger backed by github.com/rs/zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
	level  *zerologLevel
}

// zerologLevel is shared between a logger and its children so SetLevel on the
// parent applies to every derived logger, matching the slog backend.
type zerologLevel struct {
	v atomic.Int32
}

func newZerologLevel(level Level) *zerologLevel {
	lv := &zerologLevel{}
	lv.v.Store(int32(level))

	return lv
}

func (lv *zerologLevel) get() Level {
	return Level(lv.v.Load())
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerolog creates a zerolog backed logger writing to w. When console is
// true, records are rendered by zerolog.ConsoleWriter.
func NewZerolog(w io.Writer, level Level, console bool) Logger {
	if w == nil {
		w = os.Stderr
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return &ZerologLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		level:  newZerologLevel(level),
	}
}

// NewZerologWithLogger wraps an existing zerolog.Logger.
func NewZerologWithLogger(zl zerolog.Logger, level Level) Logger {
	return &ZerologLogger{logger: zl, level: newZerologLevel(level)}
}

func (z *ZerologLogger) Debug(msg string, keysAndValues ...any) {
	z.emit(DebugLevel, msg, keysAndValues)
}

func (z *ZerologLogger) Info(msg string, keysAndValues ...any) {
	z.emit(InfoLevel, msg, keysAndValues)
}

func (z *ZerologLogger) Warn(msg string, keysAndValues ...any) {
	z.emit(WarnLevel, msg, keysAndValues)
}

func (z *ZerologLogger) Error(msg string, keysAndValues ...any) {
	z.emit(ErrorLevel, msg, keysAndValues)
}

func (z *ZerologLogger) Fatal(msg string, keysAndValues ...any) {
	z.emit(ErrorLevel, msg, keysAndValues)
	os.Exit(1)
}

func (z *ZerologLogger) With(keyValues ...any) Logger {
	ctx := z.logger.With()
	for i := 0; i < len(keyValues); i += 2 {
		key, val := pairAt(keyValues, i)
		ctx = ctx.Interface(key, val)
	}

	return &ZerologLogger{logger: ctx.Logger(), level: z.level}
}

func (z *ZerologLogger) Level() Level {
	return z.level.get()
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.level.v.Store(int32(level))
}

func (z *ZerologLogger) emit(level Level, msg string, kv []any) {
	if level < z.level.get() {
		return
	}

	ev := z.logger.WithLevel(toZerologLevel(level))

	for i := 0; i < len(kv); i += 2 {
		key, val := pairAt(kv, i)
		switch v := val.(type) {
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case uint64:
			ev = ev.Uint64(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		case error:
			ev = ev.AnErr(key, v)
		case fmt.Stringer:
			ev = ev.Stringer(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

// pairAt returns the key/value pair starting at index i. A dangling key gets
// a "!MISSING" value, mirroring slog's "!BADKEY" handling.
func pairAt(kv []any, i int) (string, any) {
	key, ok := kv[i].(string)
	if !ok {
		key = fmt.Sprint(kv[i])
	}
	if i+1 >= len(kv) {
		return key, "!MISSING"
	}

	return key, kv[i+1]
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
