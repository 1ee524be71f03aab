// Package pool implements the connection-pool engine at the heart of sloris.
//
// An Engine owns a set of held connections and the statistics describing
// them. Each call to Tick runs one complete, synchronous pass:
//   - Update: connections idle for longer than the timeout get a keep-alive
//     drip; the rest get a cheap liveness probe
//   - Eviction: connections whose drip or probe failed are closed, removed
//     and folded into the statistics in the same tick
//   - Admission: at most one new connection is opened, subject to the
//     configured Admission policy
//
// Snapshot returns a value copy of the statistics for renderers and exporters.
//
// # Basic Usage
//
//	d := transport.NewDialer("10.0.0.1", 8080)
//	factory := func(ctx context.Context) (pool.Connection, error) {
//	    return d.Dial(ctx)
//	}
//
//	cfg := pool.DefaultConfig()
//	cfg.Target, cfg.Port = "10.0.0.1", 8080
//	cfg.Admission = pool.BoundedAt(3)
//
//	e := pool.New(factory, cfg)
//	defer e.Close()
//
//	for ctx.Err() == nil {
//	    e.Tick(ctx)
//	    render(e.Snapshot())
//	}
//
// An Engine is not safe for concurrent use. Share Snapshots, not the Engine.
//
// # Metrics
//
// Each tick refreshes the metrics registered with the metrics package:
//   - sloris_pool_connections_live: Currently held connections
//   - sloris_pool_connections_max: Admission cap, 0 when unbounded
//   - sloris_pool_dead_total: Connections evicted as dead
//   - sloris_pool_failed_total: Connection attempts that failed
//   - sloris_pool_admitted_total: Connections admitted
//   - sloris_pool_drips_total: Successful keep-alive drips
//   - sloris_pool_drip_failures_total: Drips that killed a connection
//   - sloris_pool_probe_failures_total: Probes that killed a connection
//   - sloris_pool_ticks_total: Completed ticks
//   - sloris_pool_average_lifetime_seconds: Rolling average lifetime
package pool
