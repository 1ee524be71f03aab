package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-i2p/sloris/lib/pool"
	"github.com/go-i2p/sloris/lib/transport"
)

// RunnerState represents the current state of the runner.
type RunnerState int

const (
	// StateInitial is the initial state before Start is called.
	StateInitial RunnerState = iota
	// StateRunning means the tick loop is active.
	StateRunning
	// StateStopping means shutdown has been requested.
	StateStopping
	// StateStopped means the loop has exited and all sockets are closed.
	StateStopped
)

func (s RunnerState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Runner drives a pool.Engine from a single goroutine and publishes a
// snapshot after every tick. Readers call Snapshot from any goroutine.
type Runner struct {
	mu       sync.RWMutex
	config   *Config
	engine   *pool.Engine
	logger   *slog.Logger
	state    RunnerState
	interval time.Duration

	snapshot atomic.Pointer[pool.Snapshot]

	// cancel is used to signal shutdown to the tick loop
	cancel context.CancelFunc
	// done signals that the loop has exited and the engine is closed
	done chan struct{}

	startedAt time.Time
}

// NewRunner creates a Runner for cfg. Connections are opened through factory.
// The tick loop is not started until Start is called.
func NewRunner(cfg *Config, factory pool.Factory, logger *slog.Logger, opts ...pool.Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if factory == nil {
		return nil, errors.New("connection factory is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	r := &Runner{
		config:   cfg,
		engine:   pool.New(factory, cfg.EngineConfig(), opts...),
		logger:   logger.With("component", "runner"),
		state:    StateInitial,
		interval: time.Duration(cfg.Pool.TickInterval),
		done:     make(chan struct{}),
	}
	r.publish()
	return r, nil
}

// DialerFactory adapts a transport.Dialer to a pool.Factory.
func DialerFactory(d *transport.Dialer) pool.Factory {
	return func(ctx context.Context) (pool.Connection, error) {
		c, err := d.Dial(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Start launches the tick loop in its own goroutine.
// The loop runs until Stop is called or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInitial {
		return fmt.Errorf("cannot start runner in state %s", r.state)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = StateRunning
	r.startedAt = time.Now()

	r.logger.Info("starting",
		"run_id", r.engine.RunID(),
		"target", r.config.Target.Host,
		"port", r.config.Target.Port,
		"timeout", r.config.Timeout(),
		"max", r.config.Pool.Max.String(),
		"interval", r.interval,
	)

	go r.run(loopCtx)
	return nil
}

// run is the tick loop. It owns the engine until it returns.
func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

loop:
	for {
		if err := r.engine.Tick(ctx); err != nil {
			r.logger.Error("tick failed", "error", err)
			break
		}
		r.publish()

		if r.interval <= 0 {
			if ctx.Err() != nil {
				break
			}
			continue
		}

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			break loop
		case <-timer.C:
		}
	}

	r.mu.Lock()
	r.state = StateStopping
	r.mu.Unlock()

	if err := r.engine.Close(); err != nil {
		r.logger.Debug("engine close", "error", err)
	}
	r.publish()

	snap := r.Snapshot()
	r.logger.Info("stopped",
		"ticks", snap.Ticks,
		"dead", snap.Dead,
		"failed", snap.Failed,
	)

	r.mu.Lock()
	r.state = StateStopped
	r.mu.Unlock()
}

// publish stores a fresh snapshot for readers.
func (r *Runner) publish() {
	snap := r.engine.Snapshot()
	r.snapshot.Store(&snap)
}

// Stop requests shutdown and waits until every held socket is closed
// or ctx is cancelled. Stopping a stopped runner is a no-op.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateStopped {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	if r.state != StateRunning && r.state != StateStopping {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("cannot stop runner in state %s", state)
	}
	cancel := r.cancel
	r.mu.Unlock()

	r.logger.Info("stopping")
	cancel()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the most recently published statistics.
// The returned value must not be modified.
func (r *Runner) Snapshot() *pool.Snapshot {
	return r.snapshot.Load()
}

// State returns the current state of the runner.
func (r *Runner) State() RunnerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Done returns a channel that is closed when the loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Uptime returns how long the runner has been running.
// Returns zero if not running.
func (r *Runner) Uptime() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.startedAt.IsZero() || r.state != StateRunning {
		return 0
	}
	return time.Since(r.startedAt)
}
