package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-upb/pim"
)

var (
	_ pim.Port = (*SerialPort)(nil)
	_ pim.Port = (*NetPort)(nil)
	_ pim.Port = (*WebSocketPort)(nil)
)

func TestOpenSerial_Errors(t *testing.T) {
	_, err := OpenSerial("/dev/upb-does-not-exist", 0)
	require.Error(t, err)

	_, err = OpenSerial("/dev/upb-does-not-exist", -1)
	require.ErrorContains(t, err, "invalid baud rate")
}

func TestEffectiveBaudRate(t *testing.T) {
	assert.Equal(t, DefaultBaudRate, EffectiveBaudRate(0))
	assert.Equal(t, 9600, EffectiveBaudRate(9600))
}

func TestDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	port, err := DialTCP(ctx, ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = port.Close() })

	var remote net.Conn
	select {
	case remote = <-accepted:
		t.Cleanup(func() { _ = remote.Close() })
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timeout waiting for accept")
	}
	assert.Equal(t, ln.Addr().String(), port.RemoteAddr().String())

	// timeout leaves the connection usable
	require.NoError(t, port.SetReadTimeout(10*time.Millisecond))
	buf := make([]byte, 16)
	_, err = port.Read(buf)
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)

	_, err = remote.Write([]byte("PK\r"))
	require.NoError(t, err)

	tr := pim.NewLineTransport(port)
	line, err := tr.ReadLine(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))

	_, err = tr.Write([]byte("hello\r"))
	require.NoError(t, err)
	got := make([]byte, 6)
	require.NoError(t, remote.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = remote.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "hello\r", string(got))
}

func TestDialTCP_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = DialTCP(context.Background(), addr)
	require.Error(t, err)
}

// newBridge starts a WebSocket server that hands each connection to serve.
func newBridge(t *testing.T, serve func(conn *websocket.Conn, r *http.Request)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn, r)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialWebSocket(t *testing.T) {
	url := newBridge(t, func(conn *websocket.Conn, _ *http.Request) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(data) == "\x14PING\r" {
				_ = conn.WriteMessage(websocket.TextMessage, []byte("PA\rP"))
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte("K\r"))
			}
		}
	})

	port, err := DialWebSocket(context.Background(), url, WebSocketOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = port.Close() })

	tr := pim.NewLineTransport(port)

	_, err = tr.ReadLine(20 * time.Millisecond)
	require.ErrorIs(t, err, pim.ErrReadTimeout)

	_, err = tr.Write([]byte("\x14PING\r"))
	require.NoError(t, err)

	line, err := tr.ReadLine(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "PA", string(line))

	line, err = tr.ReadLine(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))
}

func TestDialWebSocket_BasicAuth(t *testing.T) {
	authorized := make(chan bool, 1)
	url := newBridge(t, func(_ *websocket.Conn, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		authorized <- ok && user == "admin" && pass == "secret"
	})

	port, err := DialWebSocket(context.Background(), url, WebSocketOptions{Username: "admin", Password: "secret"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = port.Close() })

	select {
	case ok := <-authorized:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timeout waiting for handshake")
	}
}

func TestDialWebSocket_InvalidURL(t *testing.T) {
	_, err := DialWebSocket(context.Background(), "http://localhost:1/", WebSocketOptions{})
	require.ErrorContains(t, err, "unsupported URL scheme")

	_, err = DialWebSocket(context.Background(), "://bad", WebSocketOptions{})
	require.Error(t, err)
}

func TestWebSocketPort_RemoteClose(t *testing.T) {
	url := newBridge(t, func(conn *websocket.Conn, _ *http.Request) {
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("PK\r"))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	})

	port, err := DialWebSocket(context.Background(), url, WebSocketOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = port.Close() })

	tr := pim.NewLineTransport(port)
	line, err := tr.ReadLine(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(line))

	_, err = tr.ReadLine(2 * time.Second)
	require.Error(t, err)
	assert.False(t, errors.Is(err, pim.ErrReadTimeout))
}

func TestWebSocketPort_WriteAfterClose(t *testing.T) {
	url := newBridge(t, func(conn *websocket.Conn, _ *http.Request) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	port, err := DialWebSocket(context.Background(), url, WebSocketOptions{})
	require.NoError(t, err)

	require.NoError(t, port.Close())
	require.NoError(t, port.Close())

	_, err = port.Write([]byte("PK\r"))
	require.ErrorIs(t, err, ErrConnectionClosed)
}
