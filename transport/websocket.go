package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arloliu/go-upb/internal/pool"
)

// ErrConnectionClosed is returned by reads and writes on a closed WebSocketPort.
var ErrConnectionClosed = errors.New("transport: websocket connection closed")

// DefaultHandshakeTimeout bounds the WebSocket opening handshake.
const DefaultHandshakeTimeout = 10 * time.Second

const wsInboxSize = 64

// WebSocketOptions configures DialWebSocket.
type WebSocketOptions struct {
	// Username and Password enable HTTP basic auth when both are set.
	Username string
	Password string
	// InsecureSkipVerify disables certificate checks for wss:// URLs.
	InsecureSkipVerify bool
	// HandshakeTimeout defaults to DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration
	// TextFrames sends frames as text messages instead of binary.
	TextFrames bool
}

// WebSocketPort is a PIM behind a WebSocket serial bridge.
//
// A reader goroutine moves incoming messages into an inbox, so a read that
// times out leaves the socket usable. Both binary and text messages are
// accepted.
type WebSocketPort struct {
	conn    *websocket.Conn
	msgType int

	inbox   chan []byte
	pending []byte
	timeout time.Duration

	readErr   error // written before inbox is closed
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// DialWebSocket connects to a bridge at rawURL (ws:// or wss://).
func DialWebSocket(ctx context.Context, rawURL string, opts WebSocketOptions) (*WebSocketPort, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("transport: unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in for bridges with self-signed certs
		}
	}

	header := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		header.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: websocket dial %s (HTTP %d): %w", u.Redacted(), resp.StatusCode, err)
		}

		return nil, fmt.Errorf("transport: websocket dial %s: %w", u.Redacted(), err)
	}

	msgType := websocket.BinaryMessage
	if opts.TextFrames {
		msgType = websocket.TextMessage
	}

	return NewWebSocketPort(conn, msgType), nil
}

// NewWebSocketPort wraps an established connection and starts its reader.
// msgType is websocket.BinaryMessage or websocket.TextMessage.
func NewWebSocketPort(conn *websocket.Conn, msgType int) *WebSocketPort {
	p := &WebSocketPort{
		conn:    conn,
		msgType: msgType,
		inbox:   make(chan []byte, wsInboxSize),
		done:    make(chan struct{}),
	}
	go p.readLoop()

	return p
}

func (p *WebSocketPort) readLoop() {
	defer close(p.inbox)

	for {
		msgType, data, err := p.conn.ReadMessage()
		if err != nil {
			p.readErr = err
			return
		}

		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}
		if len(data) == 0 {
			continue
		}

		select {
		case p.inbox <- data:
		case <-p.done:
			p.readErr = ErrConnectionClosed
			return
		}
	}
}

// Read returns buffered bytes, waiting up to the read timeout for the next
// message. A zero timeout waits indefinitely. A read that times out returns
// os.ErrDeadlineExceeded.
func (p *WebSocketPort) Read(b []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(b, p.pending)
		p.pending = p.pending[n:]

		return n, nil
	}

	var timeoutC <-chan time.Time
	if p.timeout > 0 {
		timer := pool.GetTimer(p.timeout)
		defer pool.PutTimer(timer)
		timeoutC = timer.C
	}

	select {
	case data, ok := <-p.inbox:
		if !ok {
			if p.readErr != nil {
				return 0, p.readErr
			}

			return 0, ErrConnectionClosed
		}
		n := copy(b, data)
		p.pending = data[n:]

		return n, nil
	case <-timeoutC:
		return 0, os.ErrDeadlineExceeded
	}
}

// Write sends b as one message.
func (p *WebSocketPort) Write(b []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	select {
	case <-p.done:
		return 0, ErrConnectionClosed
	default:
	}

	if err := p.conn.WriteMessage(p.msgType, b); err != nil {
		return 0, err
	}

	return len(b), nil
}

// SetReadTimeout sets the timeout of subsequent reads.
func (p *WebSocketPort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

// Close sends a close message and closes the connection.
func (p *WebSocketPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)

		p.writeMu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		p.writeMu.Unlock()

		err = p.conn.Close()
	})

	return err
}
