// Package metrics exposes Prometheus instrumentation for the flowtrack daemon.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Breaker states as reported by the breaker gauge.
const (
	BreakerClosed   = 0.0
	BreakerHalfOpen = 1.0
	BreakerOpen     = 2.0
)

// Metrics holds every collector registered by the daemon. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	eventsAppended    *prometheus.CounterVec
	eventsSwept       prometheus.Counter
	storeErrors       *prometheus.CounterVec
	flowScore         prometheus.Gauge
	flowTrend         prometheus.Gauge
	broadcasts        *prometheus.CounterVec
	summaryRequests   *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtrack_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowtrack_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		eventsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtrack_events_appended_total",
			Help: "Activity events appended by event type and category.",
		}, []string{"event_type", "category"}),
		eventsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowtrack_events_swept_total",
			Help: "Activity events deleted by retention sweeps.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtrack_store_errors_total",
			Help: "Event store failures by operation.",
		}, []string{"op"}),
		flowScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowtrack_flow_score",
			Help: "Most recent flow score (0-100).",
		}),
		flowTrend: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowtrack_flow_trend",
			Help: "Most recent flow score trend.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtrack_broadcasts_total",
			Help: "Outbound broadcasts by message type and result.",
		}, []string{"type", "result"}),
		summaryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowtrack_summary_requests_total",
			Help: "Flow summary requests by result.",
		}, []string{"result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowtrack_breaker_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.eventsAppended,
		m.eventsSwept,
		m.storeErrors,
		m.flowScore,
		m.flowTrend,
		m.broadcasts,
		m.summaryRequests,
		m.breakerState,
	)

	m.breakerState.WithLabelValues("summary").Set(BreakerClosed)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests served by next under the route label.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventAppended records one persisted event.
func (m *Metrics) EventAppended(eventType, category string) {
	if m == nil {
		return
	}
	m.eventsAppended.WithLabelValues(eventType, category).Inc()
}

// EventsSwept records events removed by a retention sweep.
func (m *Metrics) EventsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.eventsSwept.Add(float64(n))
}

// StoreError records a failed store operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// FlowScore records the latest score and trend.
func (m *Metrics) FlowScore(score, trend float64) {
	if m == nil {
		return
	}
	m.flowScore.Set(score)
	m.flowTrend.Set(trend)
}

// Broadcast records one outbound broadcast attempt.
func (m *Metrics) Broadcast(msgType string, err error) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(msgType, result(err)).Inc()
}

// SummaryRequest records one flow summary request outcome.
func (m *Metrics) SummaryRequest(outcome string) {
	if m == nil {
		return
	}
	m.summaryRequests.WithLabelValues(outcome).Inc()
}

// SetBreakerState records a circuit breaker state for target.
func (m *Metrics) SetBreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(target).Set(state)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
