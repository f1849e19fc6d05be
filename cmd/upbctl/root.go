package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-upb/logger"
)

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	configPath string

	port       string
	baud       int
	tcpAddr    string
	wsURL      string
	wsUsername string
	noSSL      bool

	ackTimeoutMs int
	maxAttempts  int
	logLevel     string
	logBackend   string

	cfg *Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "upbctl",
		Short: "UPB powerline control through a PIM",
		Long: `upbctl sends commands to UPB devices through a Powerline Interface Module
and prints the reports devices send back.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 4800]
  TCP:       --tcp host:port
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the UPB_PASSWORD
environment variable, or prompted interactively if not set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flags.StringVarP(&opts.port, "port", "p", "", "Serial port device")
	flags.IntVarP(&opts.baud, "baud", "b", 0, "Baud rate (serial only)")
	flags.StringVar(&opts.tcpAddr, "tcp", "", "Serial-over-TCP bridge address (host:port)")
	flags.StringVarP(&opts.wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	flags.StringVar(&opts.wsUsername, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&opts.noSSL, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	flags.IntVar(&opts.ackTimeoutMs, "ack-timeout", 0, "Ack timeout in milliseconds")
	flags.IntVar(&opts.maxAttempts, "max-attempts", 0, "Transmissions per command")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logBackend, "log-backend", "", "Log backend (slog, zerolog)")

	rootCmd.AddCommand(
		newFrameCmd(opts),
		newSendCmd(opts),
		newMonitorCmd(opts),
		newPortsCmd(),
	)

	return rootCmd
}

// load reads the config file, applies flags that were set explicitly and
// installs the configured logger as the default.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	modes := 0
	for _, name := range []string{"port", "tcp", "url"} {
		if flags.Changed(name) {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("only one of --port, --tcp and --url may be set")
	}

	if flags.Changed("port") {
		cfg.Port, cfg.TCP, cfg.URL = o.port, "", ""
	}
	if flags.Changed("tcp") {
		cfg.Port, cfg.TCP, cfg.URL = "", o.tcpAddr, ""
	}
	if flags.Changed("url") {
		cfg.Port, cfg.TCP, cfg.URL = "", "", o.wsURL
	}
	if flags.Changed("baud") {
		cfg.Baud = o.baud
	}
	if flags.Changed("username") {
		cfg.Username = o.wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.InsecureSkipVerify = o.noSSL
	}
	if flags.Changed("ack-timeout") {
		cfg.AckTimeout = msDuration(o.ackTimeoutMs)
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = o.maxAttempts
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-backend") {
		cfg.Log.Backend = o.logBackend
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	o.cfg = cfg
	logger.SetLogger(cfg.NewLogger())

	return nil
}
