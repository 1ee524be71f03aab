package pool

import "github.com/go-i2p/sloris/lib/metrics"

// Pool metrics
var (
	// PoolConnectionsLive is the number of held connections.
	PoolConnectionsLive = metrics.NewGauge(
		"sloris_pool_connections_live",
		"Current number of held connections",
	)
	// PoolConnectionsMax is the admission cap, 0 when unbounded.
	PoolConnectionsMax = metrics.NewGauge(
		"sloris_pool_connections_max",
		"Admission cap on held connections (0 = unbounded)",
	)
	// PoolAverageLifetime is the rolling average lifetime in seconds.
	PoolAverageLifetime = metrics.NewGauge(
		"sloris_pool_average_lifetime_seconds",
		"Average lifetime of the most recently evicted connections",
	)
	// PoolDeadTotal is the number of connections evicted as dead.
	PoolDeadTotal = metrics.NewCounter(
		"sloris_pool_dead_total",
		"Total number of connections evicted as dead",
	)
	// PoolFailedTotal is the number of failed connection attempts.
	PoolFailedTotal = metrics.NewCounter(
		"sloris_pool_failed_total",
		"Total number of connection attempts that failed",
	)
	// PoolAdmittedTotal is the number of admitted connections.
	PoolAdmittedTotal = metrics.NewCounter(
		"sloris_pool_admitted_total",
		"Total number of connections admitted to the pool",
	)
	// PoolDripsTotal is the number of successful drips.
	PoolDripsTotal = metrics.NewCounter(
		"sloris_pool_drips_total",
		"Total number of successful keep-alive drips",
	)
	// PoolDripFailuresTotal is the number of drips that failed.
	PoolDripFailuresTotal = metrics.NewCounter(
		"sloris_pool_drip_failures_total",
		"Total number of keep-alive drips that failed",
	)
	// PoolProbeFailuresTotal is the number of liveness probes that failed.
	PoolProbeFailuresTotal = metrics.NewCounter(
		"sloris_pool_probe_failures_total",
		"Total number of liveness probes that failed",
	)
	// PoolTicksTotal is the number of completed ticks.
	PoolTicksTotal = metrics.NewCounter(
		"sloris_pool_ticks_total",
		"Total number of completed engine ticks",
	)
	// PoolTickDuration tracks how long one tick takes.
	PoolTickDuration = metrics.NewHistogram(
		"sloris_pool_tick_duration_seconds",
		"Time spent in one engine tick",
		metrics.DefaultLatencyBuckets,
	)
	// PoolConnectDuration tracks admission attempts.
	PoolConnectDuration = metrics.NewHistogram(
		"sloris_pool_connect_duration_seconds",
		"Time spent opening a new connection",
		metrics.DefaultLatencyBuckets,
	)
	// PoolConnectionLifetime tracks lifetimes of evicted connections.
	PoolConnectionLifetime = metrics.NewHistogram(
		"sloris_pool_connection_lifetime_seconds",
		"Time since last activity when a connection was evicted",
		metrics.LifetimeBuckets,
	)
)

// UpdateMetrics updates the pool gauges from stats.
func UpdateMetrics(stats *Stats) {
	PoolConnectionsLive.Set(int64(stats.Live))
	PoolAverageLifetime.Set(stats.History.AverageSeconds())
}
