package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	crmRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_requests_total",
			Help: "Total number of CRM method calls, after retries",
		},
		[]string{"method", "outcome"},
	)

	boardRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_refresh_total",
			Help: "Total number of background stage board refreshes",
		},
		[]string{"outcome"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of report cache lookups",
		},
		[]string{"cache", "result"},
	)

	leadEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_events_total",
			Help: "Total number of CRM lead webhooks received",
		},
		[]string{"outcome"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush mantém os streams de eventos funcionando atrás do middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern rotula pela rota do chi ("/api/trend") e não pela URL crua, para
// que query strings e ids não explodam o número de séries.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func RecordCRMRequest(method, outcome string) {
	crmRequests.WithLabelValues(method, outcome).Inc()
}

func RecordBoardRefresh(outcome string) {
	boardRefreshes.WithLabelValues(outcome).Inc()
}

func RecordLeadEvent(outcome string) {
	leadEvents.WithLabelValues(outcome).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}

// CacheObserver conta hits e misses de um cache nomeado.
type CacheObserver struct {
	Name string
}

func (o CacheObserver) CacheHit() {
	cacheLookups.WithLabelValues(o.Name, "hit").Inc()
}

func (o CacheObserver) CacheMiss() {
	cacheLookups.WithLabelValues(o.Name, "miss").Inc()
}
