package pool

import "time"

// HistorySize is the number of recent lifetimes kept for the rolling average.
const HistorySize = 5

// History is a bounded, newest-first record of connection lifetimes.
// Pushing onto a full history drops the oldest entry.
type History struct {
	entries [HistorySize]time.Duration
	n       int
}

// Push inserts d as the newest entry.
func (h *History) Push(d time.Duration) {
	copy(h.entries[1:], h.entries[:HistorySize-1])
	h.entries[0] = d
	if h.n < HistorySize {
		h.n++
	}
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	return h.n
}

// Entries returns a copy of the retained lifetimes, newest first.
func (h *History) Entries() []time.Duration {
	out := make([]time.Duration, h.n)
	copy(out, h.entries[:h.n])
	return out
}

// AverageSeconds is the mean of the retained lifetimes, each truncated to
// whole seconds, truncated to an integer. An empty history averages 0.
func (h *History) AverageSeconds() int64 {
	if h.n == 0 {
		return 0
	}
	var sum int64
	for _, d := range h.entries[:h.n] {
		sum += int64(d / time.Second)
	}
	return sum / int64(h.n)
}

// Stats holds the engine's running counters.
type Stats struct {
	// Live is the number of held connections.
	Live int
	// Dead is the number of connections ever evicted as dead.
	Dead uint64
	// Failed is the number of connection attempts that did not succeed.
	Failed uint64
	// History holds the lifetimes of the most recent deaths.
	History History
}

// recordDeath folds one evicted connection into the counters.
func (s *Stats) recordDeath(lifetime time.Duration) {
	s.Live--
	s.Dead++
	s.History.Push(lifetime)
}
