package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/arloliu/go-upb/pim"
	"github.com/arloliu/go-upb/transport"
)

// passwordEnv holds the WebSocket basic auth password.
const passwordEnv = "UPB_PASSWORD"

var errNoConnection = errors.New("no connection configured: use --port, --tcp or --url")

// port is an open PIM byte stream.
type port interface {
	pim.Port
	io.Closer
}

func describeSerial(cfg *Config) string {
	return fmt.Sprintf("serial %s @ %d baud", cfg.Port, transport.EffectiveBaudRate(cfg.Baud))
}

// openPort opens the connection selected by cfg and returns it with a
// human readable description.
func openPort(ctx context.Context, cfg *Config) (port, string, error) {
	switch {
	case cfg.Port != "":
		p, err := transport.OpenSerial(cfg.Port, cfg.Baud)
		if err != nil {
			return nil, "", err
		}

		return p, describeSerial(cfg), nil

	case cfg.TCP != "":
		p, err := transport.DialTCP(ctx, cfg.TCP)
		if err != nil {
			return nil, "", err
		}

		return p, "tcp " + cfg.TCP, nil

	case cfg.URL != "":
		opts := transport.WebSocketOptions{
			Username:           cfg.Username,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}
		if cfg.Username != "" {
			password, err := readPassword()
			if err != nil {
				return nil, "", err
			}
			opts.Password = password
		}

		p, err := transport.DialWebSocket(ctx, cfg.URL, opts)
		if err != nil {
			return nil, "", err
		}

		return p, "websocket " + cfg.URL, nil

	default:
		return nil, "", errNoConnection
	}
}

// readPassword returns the password from the environment, or prompts for it
// without echo.
func readPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
