//go:build !unix

package transport

import "net"

// probe falls back to a zero-length write. Some platforms never report a
// closed peer this way; dead connections are then caught by the next drip.
func probe(nc net.Conn) error {
	return probeWrite(nc)
}
