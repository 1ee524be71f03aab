//go:build unix

package transport

import (
	"fmt"
	"syscall"

	apperrors "github.com/go-i2p/sloris/lib/errors"
	"golang.org/x/sys/unix"
)

// socketError returns the socket's pending error (SO_ERROR), if any.
func socketError(fd int) error {
	soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, err)
	}
	if soerr != 0 {
		return fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, syscall.Errno(soerr))
	}
	return nil
}
