package transport

import (
	"fmt"
	"net"

	apperrors "github.com/go-i2p/sloris/lib/errors"
)

// probeWrite attempts a zero-length write.
func probeWrite(nc net.Conn) error {
	if _, err := nc.Write(nil); err != nil {
		return fmt.Errorf("probe: %w: %w", apperrors.ErrConnection, err)
	}
	return nil
}
