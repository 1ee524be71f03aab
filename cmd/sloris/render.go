package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-i2p/sloris/lib/pool"
)

// plainInterval is how often the plain renderer samples statistics.
const plainInterval = time.Second

// statusLine formats a snapshot as a single line of key=value pairs.
func statusLine(s *pool.Snapshot) string {
	if s == nil {
		return "no statistics yet"
	}
	return fmt.Sprintf("target=%s port=%d live=%d dead=%d failed=%d timeout=%ds average_lifetime=%ds",
		s.Target, s.Port, s.Live, s.Dead, s.Failed, s.TimeoutSeconds, s.AverageLifetimeSeconds)
}

// renderPlain writes a status line every interval while the statistics
// change. It returns when ctx is cancelled or done is closed.
func renderPlain(ctx context.Context, w io.Writer, source func() *pool.Snapshot, done <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			line := statusLine(source())
			if line != last {
				fmt.Fprintln(w, line)
				last = line
			}
		}
	}
}
