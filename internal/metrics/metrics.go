package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the governor.
// A nil registry is valid and records nothing.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Governance Metrics
	NominationsTotal    *prometheus.CounterVec
	VotesTotal          *prometheus.CounterVec
	SessionsClosedTotal *prometheus.CounterVec
	PromotionsTotal     *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	InteractionsTotal   *prometheus.CounterVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	SyncJobDuration *prometheus.HistogramVec
}

// NewMetricsRegistry registers every metric with reg
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "governor_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "governor_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		NominationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_nominations_total",
				Help: "Nomination attempts by result",
			},
			[]string{"result"},
		),
		VotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_votes_total",
				Help: "Vote clicks by result",
			},
			[]string{"result"},
		),
		SessionsClosedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_sessions_closed_total",
				Help: "Voting sessions closed by reason",
			},
			[]string{"reason"},
		),
		PromotionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_promotions_total",
				Help: "Promotion attempts by result",
			},
			[]string{"result"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_notifications_total",
				Help: "Admin notifications by result",
			},
			[]string{"result"},
		),
		InteractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_interactions_total",
				Help: "Chat interactions handled by command and outcome",
			},
			[]string{"command", "outcome"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governor_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		SyncJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "governor_sync_job_duration_seconds",
				Help:    "Background job execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"job"},
		),
	}
}

func (m *MetricsRegistry) Nomination(result string) {
	if m != nil {
		m.NominationsTotal.WithLabelValues(result).Inc()
	}
}

func (m *MetricsRegistry) Vote(result string) {
	if m != nil {
		m.VotesTotal.WithLabelValues(result).Inc()
	}
}

func (m *MetricsRegistry) SessionClosed(reason string) {
	if m != nil {
		m.SessionsClosedTotal.WithLabelValues(reason).Inc()
	}
}

func (m *MetricsRegistry) Promotion(result string) {
	if m != nil {
		m.PromotionsTotal.WithLabelValues(result).Inc()
	}
}

func (m *MetricsRegistry) Notification(result string) {
	if m != nil {
		m.NotificationsTotal.WithLabelValues(result).Inc()
	}
}

func (m *MetricsRegistry) Interaction(command, outcome string) {
	if m != nil {
		m.InteractionsTotal.WithLabelValues(command, outcome).Inc()
	}
}

func (m *MetricsRegistry) CacheLookup(pattern string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(pattern).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) JobDuration(job string, seconds float64) {
	if m != nil {
		m.SyncJobDuration.WithLabelValues(job).Observe(seconds)
	}
}
