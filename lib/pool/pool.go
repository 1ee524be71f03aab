package pool

import (
	"context"
	"time"

	apperrors "github.com/go-i2p/sloris/lib/errors"
	"github.com/gofrs/uuid/v5"
)

// DefaultTimeout is the idle time after which a held connection needs a drip.
const DefaultTimeout = 30 * time.Second

// Connection is one held outbound connection.
type Connection interface {
	// Drip writes one keep-alive fragment. Any error, including a
	// partial write, means the connection is dead.
	Drip() error
	// Probe checks liveness without consuming timeout budget.
	Probe() error
	// Close releases the connection. Errors are ignored by the engine.
	Close() error
}

// Factory opens a new connection and sends its request opener.
type Factory func(ctx context.Context) (Connection, error)

// Config configures the engine.
type Config struct {
	// Target is the host connections are opened to. Informational only;
	// the Factory does the dialing.
	Target string
	// Port is the target port. Informational only.
	Port uint16
	// Timeout is the maximum idle time before a drip is sent.
	// Default: 30 seconds
	Timeout time.Duration
	// Admission caps the number of held connections.
	// Default: Unbounded
	Admission Admission
}

// DefaultConfig returns a Config with the default timeout and no cap.
func DefaultConfig() Config {
	return Config{
		Port:      80,
		Timeout:   DefaultTimeout,
		Admission: Unbounded(),
	}
}

// State is the lifecycle state of a held connection.
type State int

const (
	// StateActive means the connection is held and believed open.
	StateActive State = iota
	// StateDead means the connection failed a drip or probe. Terminal.
	StateDead
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// record wraps a connection with its activity timestamps.
type record struct {
	conn         Connection
	createdAt    time.Time
	lastActivity time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunID sets the identifier reported in snapshots and logs.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// Engine holds connections against one target.
type Engine struct {
	factory Factory
	config  Config
	now     func() time.Time

	conns     []*record
	stats     Stats
	ticks     uint64
	runID     string
	startedAt time.Time
	closed    bool
}

// New creates an engine. No connection is opened until the first Tick.
func New(factory Factory, cfg Config, opts ...Option) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	e := &Engine{
		factory: factory,
		config:  cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		if id, err := uuid.NewV4(); err == nil {
			e.runID = id.String()
		}
	}
	e.startedAt = e.now()

	if n, ok := cfg.Admission.Max(); ok {
		PoolConnectionsMax.Set(int64(n))
	} else {
		PoolConnectionsMax.Set(0)
	}

	log.WithField("runID", e.runID).
		WithField("timeout", cfg.Timeout).
		WithField("admission", cfg.Admission.String()).
		Debug("engine created")
	return e
}

// Tick runs one update, eviction and admission pass. Per-connection
// failures are folded into the statistics; the only error returned is
// ErrPoolClosed.
func (e *Engine) Tick(ctx context.Context) error {
	if e.closed {
		return apperrors.ErrPoolClosed
	}

	start := time.Now()
	now := e.now()

	dead := e.update(now)
	e.evict(now, dead)
	e.admit(ctx, now)

	e.ticks++
	PoolTicksTotal.Inc()
	PoolTickDuration.ObserveDuration(time.Since(start))
	UpdateMetrics(&e.stats)
	return nil
}

// update drips or probes every held connection and returns the indices of
// the ones that died, in ascending order.
func (e *Engine) update(now time.Time) []int {
	var dead []int
	for i, r := range e.conns {
		if now.Sub(r.lastActivity) > e.config.Timeout {
			if err := r.conn.Drip(); err != nil {
				log.WithField("state", StateDead).WithError(err).Debug("drip failed")
				PoolDripFailuresTotal.Inc()
				dead = append(dead, i)
				continue
			}
			r.lastActivity = now
			PoolDripsTotal.Inc()
			continue
		}

		if err := r.conn.Probe(); err != nil {
			log.WithField("state", StateDead).WithError(err).Debug("probe failed")
			PoolProbeFailuresTotal.Inc()
			dead = append(dead, i)
		}
	}
	return dead
}

// evict closes and removes the connections at the given ascending indices
// in a single compaction pass.
func (e *Engine) evict(now time.Time, dead []int) {
	if len(dead) == 0 {
		return
	}

	n := len(e.conns)
	kept := e.conns[:0]
	next := 0
	for i, r := range e.conns {
		if next < len(dead) && dead[next] == i {
			next++
			if err := r.conn.Close(); err != nil {
				log.WithError(err).Debug("close failed during eviction")
			}
			lifetime := now.Sub(r.lastActivity)
			e.stats.recordDeath(lifetime)
			PoolDeadTotal.Inc()
			PoolConnectionLifetime.ObserveDuration(lifetime)
			log.WithField("lifetime", lifetime).WithField("age", now.Sub(r.createdAt)).Debug("connection evicted")
			continue
		}
		kept = append(kept, r)
	}
	clear(e.conns[len(kept):n])
	e.conns = kept
}

// admit opens at most one connection if the policy allows it.
func (e *Engine) admit(ctx context.Context, now time.Time) {
	if !e.config.Admission.Allows(len(e.conns)) || ctx.Err() != nil {
		return
	}

	start := time.Now()
	conn, err := e.factory(ctx)
	PoolConnectDuration.ObserveDuration(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the dial; the target did not refuse it.
			log.WithError(err).Debug("admission cancelled")
			return
		}
		e.stats.Failed++
		PoolFailedTotal.Inc()
		if apperrors.IsConnection(err) {
			log.WithError(err).Debug("admission failed")
		} else {
			log.WithError(err).Warn("admission failed with a non-connection error")
		}
		return
	}

	e.conns = append(e.conns, &record{
		conn:         conn,
		createdAt:    now,
		lastActivity: now,
	})
	e.stats.Live++
	PoolAdmittedTotal.Inc()
}

// Close closes every held connection. Held connections are not counted as
// dead. Close on a closed engine returns ErrPoolClosed.
func (e *Engine) Close() error {
	if e.closed {
		return apperrors.ErrPoolClosed
	}
	e.closed = true

	for _, r := range e.conns {
		if err := r.conn.Close(); err != nil {
			log.WithError(err).Debug("close failed during shutdown")
		}
	}
	clear(e.conns)
	e.conns = nil
	e.stats.Live = 0
	UpdateMetrics(&e.stats)

	log.WithField("runID", e.runID).WithField("ticks", e.ticks).Debug("engine closed")
	return nil
}

// Live returns the number of held connections.
func (e *Engine) Live() int {
	return len(e.conns)
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 {
	return e.ticks
}

// RunID returns the run identifier.
func (e *Engine) RunID() string {
	return e.runID
}

// Snapshot is a read-only copy of the engine statistics.
type Snapshot struct {
	RunID                  string          `json:"run_id"`
	Target                 string          `json:"target"`
	Port                   uint16          `json:"port"`
	Admission              string          `json:"admission"`
	Live                   int             `json:"live"`
	Dead                   uint64          `json:"dead"`
	Failed                 uint64          `json:"failed"`
	TimeoutSeconds         int64           `json:"timeout_seconds"`
	AverageLifetimeSeconds int64           `json:"average_lifetime_seconds"`
	Lifetimes              []time.Duration `json:"lifetimes_ns"`
	Ticks                  uint64          `json:"ticks"`
	StartedAt              time.Time       `json:"started_at"`
	TakenAt                time.Time       `json:"taken_at"`
}

// Snapshot returns the current statistics. The result shares no memory
// with the engine.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		RunID:                  e.runID,
		Target:                 e.config.Target,
		Port:                   e.config.Port,
		Admission:              e.config.Admission.String(),
		Live:                   e.stats.Live,
		Dead:                   e.stats.Dead,
		Failed:                 e.stats.Failed,
		TimeoutSeconds:         int64(e.config.Timeout / time.Second),
		AverageLifetimeSeconds: e.stats.History.AverageSeconds(),
		Lifetimes:              e.stats.History.Entries(),
		Ticks:                  e.ticks,
		StartedAt:              e.startedAt,
		TakenAt:                e.now(),
	}
}
