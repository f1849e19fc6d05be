package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultDialTimeout bounds DialTCP when ctx has no deadline.
const DefaultDialTimeout = 5 * time.Second

// NetPort is a PIM behind a raw TCP serial bridge.
type NetPort struct {
	conn net.Conn
}

// DialTCP connects to a serial bridge at addr ("host:port").
func DialTCP(ctx context.Context, addr string) (*NetPort, error) {
	dialer := net.Dialer{Timeout: DefaultDialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	return NewNetPort(conn), nil
}

// NewNetPort wraps an established connection.
func NewNetPort(conn net.Conn) *NetPort {
	return &NetPort{conn: conn}
}

// RemoteAddr returns the bridge address.
func (p *NetPort) RemoteAddr() net.Addr {
	return p.conn.RemoteAddr()
}

func (p *NetPort) Read(b []byte) (int, error) {
	return p.conn.Read(b)
}

func (p *NetPort) Write(b []byte) (int, error) {
	return p.conn.Write(b)
}

// SetReadTimeout sets a read deadline t from now. A read that times out
// returns an error wrapping os.ErrDeadlineExceeded.
func (p *NetPort) SetReadTimeout(t time.Duration) error {
	return p.conn.SetReadDeadline(time.Now().Add(t))
}

func (p *NetPort) Close() error {
	return p.conn.Close()
}
