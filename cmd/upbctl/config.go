package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/pim"
	"github.com/arloliu/go-upb/transport"
)

// Config is the upbctl configuration file.
type Config struct {
	// Port is a serial device, e.g. /dev/ttyUSB0.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	// TCP is the host:port of a serial-over-TCP bridge.
	TCP string `yaml:"tcp"`
	// URL is a ws:// or wss:// serial bridge.
	URL                string `yaml:"url"`
	Username           string `yaml:"username"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`

	// Network is the default UPB network ID.
	Network uint8 `yaml:"network"`

	AckTimeout  time.Duration `yaml:"ack_timeout"`
	MaxAttempts int           `yaml:"max_attempts"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects the logging backend.
type LogConfig struct {
	Level string `yaml:"level"`
	// Backend is "slog" or "zerolog".
	Backend string `yaml:"backend"`
}

// DefaultConfig returns a config with the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Baud:        transport.DefaultBaudRate,
		Network:     1,
		AckTimeout:  pim.DefaultAckTimeout,
		MaxAttempts: pim.DefaultMaxAttempts,
		Log: LogConfig{
			Level:   "info",
			Backend: "slog",
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that at most one connection mode is set and that the
// logging settings are known.
func (c *Config) Validate() error {
	modes := 0
	for _, s := range []string{c.Port, c.TCP, c.URL} {
		if s != "" {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("config: only one of port, tcp and url may be set")
	}

	if _, ok := logger.ParseLevel(strings.ToLower(c.Log.Level)); !ok {
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}

	switch c.Log.Backend {
	case "slog", "zerolog":
	default:
		return fmt.Errorf("config: unknown log backend %q", c.Log.Backend)
	}

	return nil
}

// EngineOptions converts the config to engine options.
func (c *Config) EngineOptions(l logger.Logger) []pim.EngineOption {
	return []pim.EngineOption{
		pim.WithAckTimeout(c.AckTimeout),
		pim.WithMaxAttempts(c.MaxAttempts),
		pim.WithLogger(l),
	}
}

// NewLogger builds the configured logger. Logs go to stderr.
func (c *Config) NewLogger() logger.Logger {
	level, _ := logger.ParseLevel(strings.ToLower(c.Log.Level))

	if c.Log.Backend == "zerolog" {
		return logger.NewZerolog(os.Stderr, level, true)
	}

	return logger.NewSlogWithWriter(os.Stderr, level, false)
}
