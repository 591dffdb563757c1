package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instalite_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "instalite_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedFanoutRows counts feed rows written, split by synchronous and deferred path.
	FeedFanoutRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instalite_feed_fanout_rows_total",
		Help: "Feed rows written by fan-out",
	}, []string{"path"})

	// FeedFanoutDeferred counts uploads whose fan-out overflowed into the outbox.
	FeedFanoutDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "instalite_feed_fanout_deferred_total",
		Help: "Fan-outs that left work in the outbox",
	})

	// OutboxRelayResults counts relay outcomes by result (dispatched, done, retry, failed).
	OutboxRelayResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instalite_feed_outbox_relay_total",
		Help: "Outbox relay outcomes",
	}, []string{"result"})

	// WebSocketConnectionsTotal is the gauge of active realtime connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "instalite_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instalite_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

const queryStartKey = "instalite:query_start"

// DatabaseMetrics is a GORM plugin recording query latency per operation and table.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns a new DatabaseMetrics plugin.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// Name implements gorm.Plugin.
func (*DatabaseMetrics) Name() string {
	return "instalite:metrics"
}

// Initialize implements gorm.Plugin by registering before/after callbacks.
func (m *DatabaseMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(n+":after", a)
		}},
		{"query", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(n+":after", a)
		}},
		{"update", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(n+":after", a)
		}},
		{"delete", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(n+":after", a)
		}},
		{"raw", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(n+":after", a)
		}},
	}

	for _, h := range hooks {
		op := h.op
		if err := h.register("instalite:metrics:"+op, m.before, m.after(op)); err != nil {
			return err
		}
	}
	return nil
}

func (*DatabaseMetrics) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (m *DatabaseMetrics) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		m.ObserveQuery(operation, table, start)
	}
}

// ObserveQuery records the latency of a database query.
func (*DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
