package tui

import (
	"time"

	"github.com/go-i2p/sloris/lib/pool"
)

// refreshMsg carries the latest published snapshot.
type refreshMsg struct {
	snapshot *pool.Snapshot
	at       time.Time
}

// tickMsg triggers a data refresh.
type tickMsg time.Time
