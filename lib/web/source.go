package web

import "github.com/go-i2p/sloris/lib/pool"

// StatsSource supplies the statistics served by the status endpoint.
// This interface allows for easier testing by enabling mock implementations.
type StatsSource interface {
	// Snapshot returns the latest published statistics, or nil before the
	// first one is available.
	Snapshot() *pool.Snapshot
}
