package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	BadgeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_events_total",
			Help: "Badge events handled, by event type and outcome",
		},
		[]string{"event", "outcome"},
	)
	BadgeUnlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_unlocks_total",
			Help: "Durably persisted badge unlocks",
		},
		[]string{"badge"},
	)
	FactFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_fact_failures_total",
			Help: "Activity fact fetches that failed, by badge family",
		},
		[]string{"family"},
	)
	PersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "badge_persist_failures_total",
			Help: "Badge collection writes that failed after retries",
		},
	)
	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badge_evaluation_duration_seconds",
			Help:    "Time spent handling one badge event, fact fetches included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_notifications_total",
			Help: "Unlock pushes, by delivery result",
		},
		[]string{"result"},
	)
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "business_cache_requests_total",
			Help: "Business cache lookups, by result",
		},
		[]string{"result"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
	CircuitBreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// Register adds every collector to reg. Call it once from server start-up.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		BadgeEvents,
		BadgeUnlocks,
		FactFailures,
		PersistFailures,
		EvaluationDuration,
		Notifications,
		CacheRequests,
		CircuitBreakerState,
		CircuitBreakerTransitions,
	)
}

// Monitor records request counts and latency labelled by chi route pattern.
func Monitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack hands the connection to the websocket upgrade.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}
