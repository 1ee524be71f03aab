//go:build linux

package transport

import (
	"fmt"

	apperrors "github.com/go-i2p/sloris/lib/errors"
	"golang.org/x/sys/unix"
)

// socketState reports a dead connection when the socket has a pending error
// or has left ESTABLISHED, e.g. CLOSE_WAIT after a FIN or CLOSE after a reset.
func socketState(fd int) error {
	if err := socketError(fd); err != nil {
		return err
	}

	info, err := unix.GetsockoptTCPInfo(fd, unix.IPPROTO_TCP, unix.TCP_INFO)
	if err != nil {
		return fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, err)
	}
	if info.State != unix.BPF_TCP_ESTABLISHED {
		log.WithField("tcp_state", info.State).Debug("held socket left ESTABLISHED")
		return apperrors.ErrPeerClosed
	}
	return nil
}
