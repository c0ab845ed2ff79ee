// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "protocol_risk"

// ── HTTP read API ──────────────────────────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of read API requests.",
	}, []string{"method", "route", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Read API latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ── Upstream providers ─────────────────────────────────────────────────

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Upstream requests that reached the network, per provider.",
	}, []string{"provider", "status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "duration_seconds",
		Help:      "Upstream request latency in seconds, including retries.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	UpstreamFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "failures_total",
		Help:      "Fetches that left a view fragment empty, per provider and operation.",
	}, []string{"provider", "operation"})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "breaker_state",
		Help:      "Circuit breaker state per provider (0 closed, 1 open, 2 half-open).",
	}, []string{"provider"})
)

// ── Response cache ─────────────────────────────────────────────────────

var (
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Upstream responses served from the TTL cache.",
	}, []string{"provider"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Upstream requests not found in the TTL cache.",
	}, []string{"provider"})
)

// ── Risk & alerts ──────────────────────────────────────────────────────

var (
	ProtocolRiskLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "level",
		Help:      "Latest computed risk tier per tracked protocol (1 low to 4 critical).",
	}, []string{"slug"})

	ProtocolTVL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "risk",
		Name:      "tvl_usd",
		Help:      "Latest reconciled TVL per tracked protocol.",
	}, []string{"slug"})

	ActiveAlerts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "alerts",
		Name:      "active",
		Help:      "Alerts produced by the latest watchlist pass, per severity.",
	}, []string{"severity"})
)
