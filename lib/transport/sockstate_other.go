//go:build unix && !linux

package transport

// socketState only sees resets here; a FIN behind unread bytes is caught by
// the next drip.
func socketState(fd int) error {
	return socketError(fd)
}
