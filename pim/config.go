package pim

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/upb"
)

// Default engine settings.
const (
	DefaultAckTimeout   = 1 * time.Second       // wait for PK/PN after each transmission
	DefaultMaxAttempts  = 3                     // transmissions per command, first one included
	DefaultPollInterval = 50 * time.Millisecond // idle read slice
)

// Setting range limits.
const (
	MinAckTimeout = 50 * time.Millisecond
	MaxAckTimeout = 30 * time.Second

	MinMaxAttempts = 1
	MaxMaxAttempts = 16

	MinPollInterval = 5 * time.Millisecond
	MaxPollInterval = 1 * time.Second

	// MaxEnableBodySize bounds the enable frame body.
	MaxEnableBodySize = 32
)

// DefaultEnableBody writes PIM register 0x70 with 0x02, which switches the
// PIM into message mode.
var DefaultEnableBody = []byte{0x70, 0x02}

// EngineConfig holds the configuration of a delivery engine.
type EngineConfig struct {
	ackTimeout   time.Duration
	maxAttempts  int
	pollInterval time.Duration

	// enableBody is nil when the enable frame is disabled.
	enableBody []byte

	decoder MessageDecoder
	logger  logger.Logger
}

// NewEngineConfig creates an engine configuration.
//
// opts are functional options applied in order; see With* functions.
func NewEngineConfig(opts ...EngineOption) (*EngineConfig, error) {
	cfg := &EngineConfig{
		ackTimeout:   DefaultAckTimeout,
		maxAttempts:  DefaultMaxAttempts,
		pollInterval: DefaultPollInterval,
		enableBody:   append([]byte(nil), DefaultEnableBody...),
		decoder:      upb.DecodeMessage,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// AckTimeout returns how long the engine waits for PK or PN after a transmission.
func (cfg *EngineConfig) AckTimeout() time.Duration { return cfg.ackTimeout }

// MaxAttempts returns the number of transmissions allowed per command.
func (cfg *EngineConfig) MaxAttempts() int { return cfg.maxAttempts }

// PollInterval returns the read slice used while idle.
func (cfg *EngineConfig) PollInterval() time.Duration { return cfg.pollInterval }

// EnableFrame returns the enable frame, or a zero Frame when disabled.
func (cfg *EngineConfig) EnableFrame() Frame {
	if cfg.enableBody == nil {
		return Frame{}
	}

	return EncodeEnableFrame(cfg.enableBody)
}

// Decoder returns the unsolicited report decoder.
func (cfg *EngineConfig) Decoder() MessageDecoder { return cfg.decoder }

// GetLogger returns the configured logger.
func (cfg *EngineConfig) GetLogger() logger.Logger { return cfg.logger }

// EngineOption is a functional option for configuring an EngineConfig.
type EngineOption interface {
	apply(*EngineConfig) error
}

type engineOptFunc func(*EngineConfig) error

func (f engineOptFunc) apply(cfg *EngineConfig) error { return f(cfg) }

// WithAckTimeout sets the ack timeout. Range: 50ms–30s.
func WithAckTimeout(d time.Duration) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if d < MinAckTimeout || d > MaxAckTimeout {
			return fmt.Errorf("pim: ack timeout %v out of range [%v, %v]", d, MinAckTimeout, MaxAckTimeout)
		}
		cfg.ackTimeout = d

		return nil
	})
}

// WithMaxAttempts sets the number of transmissions per command, the first
// one included. Range: 1–16.
func WithMaxAttempts(n int) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if n < MinMaxAttempts || n > MaxMaxAttempts {
			return fmt.Errorf("pim: max attempts %d out of range [%d, %d]", n, MinMaxAttempts, MaxMaxAttempts)
		}
		cfg.maxAttempts = n

		return nil
	})
}

// WithPollInterval sets how long a single read waits while the engine is
// idle or awaiting a response. It bounds the latency of Submit and
// Terminate. Range: 5ms–1s.
func WithPollInterval(d time.Duration) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if d < MinPollInterval || d > MaxPollInterval {
			return fmt.Errorf("pim: poll interval %v out of range [%v, %v]", d, MinPollInterval, MaxPollInterval)
		}
		cfg.pollInterval = d

		return nil
	})
}

// WithEnableBody sets the body of the enable frame sent before the first
// command.
func WithEnableBody(body []byte) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if len(body) == 0 {
			return errors.New("pim: enable body must not be empty")
		}
		if len(body) > MaxEnableBodySize {
			return fmt.Errorf("pim: enable body size %d exceeds maximum %d", len(body), MaxEnableBodySize)
		}
		cfg.enableBody = append([]byte(nil), body...)

		return nil
	})
}

// WithoutEnableFrame disables the enable frame, for PIMs already in message
// mode.
func WithoutEnableFrame() EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		cfg.enableBody = nil
		return nil
	})
}

// WithMessageDecoder sets the decoder for unsolicited reports.
func WithMessageDecoder(fn MessageDecoder) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if fn == nil {
			return errors.New("pim: message decoder must not be nil")
		}
		cfg.decoder = fn

		return nil
	})
}

// WithLogger sets the logger for the engine.
func WithLogger(l logger.Logger) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if l == nil {
			return errors.New("pim: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
