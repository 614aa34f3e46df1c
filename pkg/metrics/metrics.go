package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Adjudication metrics
	Adjudications       *prometheus.CounterVec
	AdjudicationLatency prometheus.Histogram
	ClaimsFiled         *prometheus.CounterVec
	ClaimTransitions    *prometheus.CounterVec
	SequenceRetries     *prometheus.CounterVec

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Worker metrics
	CardsExpired prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Adjudications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "adjudications_total",
			Help:      "Total number of adjudication requests by outcome",
		}, []string{"outcome"}),
		AdjudicationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "adjudication_duration_seconds",
			Help:      "Time spent adjudicating a request",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ClaimsFiled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "claims_filed_total",
			Help:      "Total number of claims filed by visit type",
		}, []string{"visit_type"}),
		ClaimTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "claim_transitions_total",
			Help:      "Total number of claim status transitions",
		}, []string{"from", "to"}),
		SequenceRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "claim_sequence_retries_total",
			Help:      "Total number of claim number conflicts that were retried",
		}, []string{"month_key"}),

		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		CardsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cards_expired_total",
			Help:      "Total number of cards moved to expired by the sweep",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) ObserveAdjudication(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.Adjudications.WithLabelValues(outcome).Inc()
	m.AdjudicationLatency.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveClaimFiled(visitType string) {
	if m == nil {
		return
	}
	m.ClaimsFiled.WithLabelValues(visitType).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.ClaimTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveSequenceRetry(monthKey string) {
	if m == nil {
		return
	}
	m.SequenceRetries.WithLabelValues(monthKey).Inc()
}

func (m *Metrics) ObserveOutbox(eventType string, err error, retried bool) {
	if m == nil {
		return
	}
	if retried {
		m.OutboxRetries.WithLabelValues(eventType).Inc()
	}
	if err != nil {
		m.OutboxEventsFailed.Inc()
		return
	}
	m.OutboxEventsProcessed.Inc()
}

// OutboxTimer starts a batch timer; call the returned func when done.
func (m *Metrics) OutboxTimer() func() {
	if m == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(m.OutboxProcessingLatency)
	return func() { timer.ObserveDuration() }
}

func (m *Metrics) ObserveCardsExpired(n int) {
	if m == nil {
		return
	}
	m.CardsExpired.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPLatency.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
