// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Replay metrics
	CandlesReplayed prometheus.Counter
	BarsClosed      *prometheus.CounterVec
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram

	// Trading metrics
	OrdersStaged prometheus.Counter
	FillsTotal   *prometheus.CounterVec
	Balance      prometheus.Gauge
	DrawdownPct  prometheus.Gauge

	// Live feed metrics
	KlinesReceived   prometheus.Counter
	StreamReconnects prometheus.Counter
	KlineLatency     prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngest prometheus.Gauge
	LastCompletedRun     prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tradesim_lab"
	}

	return &Metrics{
		// Replay metrics
		CandlesReplayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "candles_replayed_total",
			Help:      "Total number of base-resolution candles replayed",
		}),
		BarsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "bars_closed_total",
			Help:      "Total number of closed bars by timeframe",
		}, []string{"timeframe"}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Trading metrics
		OrdersStaged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "orders_staged_total",
			Help:      "Total number of orders staged into the book",
		}),
		FillsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "fills_total",
			Help:      "Total number of fills by reason",
		}, []string{"reason"}),
		Balance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "balance",
			Help:      "Current account balance",
		}),
		DrawdownPct: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "drawdown_pct",
			Help:      "Current drawdown from the balance high-water mark",
		}),

		// Live feed metrics
		KlinesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livefeed",
			Name:      "klines_received_total",
			Help:      "Total number of kline updates received",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "livefeed",
			Name:      "stream_reconnects_total",
			Help:      "Total number of WebSocket reconnects",
		}),
		KlineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "livefeed",
			Name:      "kline_latency_seconds",
			Help:      "Kline message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of last successful candle ingest",
		}),
		LastCompletedRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_completed_run_timestamp",
			Help:      "Unix timestamp of last completed simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCandleReplayed increments the candles replayed counter.
func RecordCandleReplayed() {
	DefaultMetrics.CandlesReplayed.Inc()
}

// RecordBarClosed increments the closed-bar counter for a timeframe.
func RecordBarClosed(timeframe string) {
	DefaultMetrics.BarsClosed.WithLabelValues(timeframe).Inc()
}

// RecordFill records one fill and refreshes the account gauges.
func RecordFill(reason string, balance, drawdownPct float64) {
	DefaultMetrics.FillsTotal.WithLabelValues(reason).Inc()
	DefaultMetrics.Balance.Set(balance)
	DefaultMetrics.DrawdownPct.Set(drawdownPct)
}

// RecordRun records a finished simulation run.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordKlineReceived increments the klines received counter.
func RecordKlineReceived() {
	DefaultMetrics.KlinesReceived.Inc()
}

// RecordStreamReconnect increments the reconnect counter.
func RecordStreamReconnect() {
	DefaultMetrics.StreamReconnects.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
