//go:build unix

package transport

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	apperrors "github.com/go-i2p/sloris/lib/errors"
	"golang.org/x/sys/unix"
)

// probe peeks at the socket without blocking. A zero-length write is a no-op
// on these platforms and never reports a reset peer, so the receive side is
// inspected instead:
//   - EOF means the peer closed its side
//   - EAGAIN means nothing is pending and the socket is healthy
//   - pending bytes are left in place; the socket state then decides, since
//     unread bytes hide a later FIN or RST from recv
//   - any other error (ECONNRESET, ETIMEDOUT...) means dead
func probe(nc net.Conn) error {
	sc, ok := nc.(syscall.Conn)
	if !ok {
		return probeWrite(nc)
	}

	rc, err := sc.SyscallConn()
	if err != nil {
		return fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, err)
	}

	var buf [1]byte
	var perr error
	err = rc.Read(func(fd uintptr) bool {
		n, _, rerr := unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		switch {
		case errors.Is(rerr, unix.EAGAIN), errors.Is(rerr, unix.EWOULDBLOCK), errors.Is(rerr, unix.EINTR):
		case rerr != nil:
			perr = fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, rerr)
		case n == 0:
			perr = apperrors.ErrPeerClosed
		default:
			perr = socketState(int(fd))
		}
		// Never wait for readiness.
		return true
	})
	if err != nil {
		return fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, err)
	}
	return perr
}
