package pim

import (
	"errors"
	"io"
	"net"
	"os"
	"time"
)

// maxLineLength bounds a line without terminator. Longer runs are treated as
// noise and discarded.
const maxLineLength = 512

// Transport is the byte-level duplex channel to the PIM.
//
// The engine never opens, configures, or closes a Transport; it is handed an
// open instance and learns about closure through read or write errors.
type Transport interface {
	// Write writes a complete frame.
	Write(p []byte) (n int, err error)
	// ReadLine returns the next line terminated by CR or LF, without the
	// terminator. It returns ErrReadTimeout if no complete line arrives
	// within timeout.
	ReadLine(timeout time.Duration) ([]byte, error)
}

// Port is a raw byte stream with a settable read timeout.
//
// go.bug.st/serial ports satisfy it directly; see package transport for TCP
// and WebSocket implementations. A Read that times out may return either a
// timeout error or (0, nil).
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

// lineTransport splits a Port's byte stream into lines.
//
// It is not goroutine-safe; the engine worker is its only user.
type lineTransport struct {
	port    Port
	buf     [256]byte
	pending []byte
	readErr error
}

// NewLineTransport wraps p into a Transport.
//
// Partial lines are kept across read timeouts. Empty lines, such as the
// second half of a CR LF pair, are skipped.
func NewLineTransport(p Port) Transport {
	return &lineTransport{port: p}
}

func (lt *lineTransport) Write(p []byte) (int, error) {
	for written := 0; written < len(p); {
		n, err := lt.port.Write(p[written:])
		written += n

		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, io.ErrShortWrite
		}
	}

	return len(p), nil
}

func (lt *lineTransport) ReadLine(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	for {
		if line, ok := lt.nextLine(); ok {
			return line, nil
		}

		if lt.readErr != nil {
			return nil, lt.readErr
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrReadTimeout
		}

		if err := lt.port.SetReadTimeout(remaining); err != nil {
			return nil, err
		}

		n, err := lt.port.Read(lt.buf[:])
		if n > 0 {
			lt.pending = append(lt.pending, lt.buf[:n]...)
		}

		if err != nil && !isTimeoutError(err) {
			// surface buffered lines before the error
			lt.readErr = err
		}
	}
}

// nextLine pops the next non-empty line from the pending buffer.
func (lt *lineTransport) nextLine() ([]byte, bool) {
	for {
		idx := -1
		for i, b := range lt.pending {
			if b == CR || b == LF {
				idx = i
				break
			}
		}

		if idx < 0 {
			if len(lt.pending) > maxLineLength {
				lt.pending = lt.pending[:0]
			}

			return nil, false
		}

		line := make([]byte, idx)
		copy(line, lt.pending[:idx])

		rest := copy(lt.pending, lt.pending[idx+1:])
		lt.pending = lt.pending[:rest]

		if len(line) > 0 {
			return line, true
		}
	}
}

func isTimeoutError(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, ErrReadTimeout) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
