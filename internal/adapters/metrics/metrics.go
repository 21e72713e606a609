// Package metrics exposes board and HTTP counters through a Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skadi"

// Registry owns every collector skadi exports. It implements app.Metrics.
type Registry struct {
	registry *prometheus.Registry

	moves           *prometheus.CounterVec
	rebalances      *prometheus.CounterVec
	rebalancedItems prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New constructs a registry with all collectors registered.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moves_total",
				Help:      "Card moves by outcome.",
			},
			[]string{"outcome"},
		),
		rebalances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rebalances_total",
				Help:      "Column rebalances by outcome.",
			},
			[]string{"outcome"},
		),
		rebalancedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebalanced_items_total",
			Help:      "Cards whose rank was rewritten by a rebalance.",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
	r.registry.MustRegister(r.moves, r.rebalances, r.rebalancedItems, r.requestsTotal, r.requestDuration)
	return r
}

// MoveCommitted records a persisted card move.
func (r *Registry) MoveCommitted(string) {
	r.moves.WithLabelValues("committed").Inc()
}

// MoveRolledBack records a move undone after a failed write.
func (r *Registry) MoveRolledBack(string) {
	r.moves.WithLabelValues("rolled_back").Inc()
}

// RebalanceFinished records one rebalance attempt.
func (r *Registry) RebalanceFinished(_ string, items int, err error) {
	if err != nil {
		r.rebalances.WithLabelValues("failed").Inc()
		return
	}
	r.rebalances.WithLabelValues("ok").Inc()
	r.rebalancedItems.Add(float64(items))
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Middleware counts and times every request that reaches next.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		path := RouteLabel(req.URL.Path)
		r.requestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(rec.status)).Inc()
		r.requestDuration.WithLabelValues(req.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RouteLabel replaces entity ids in an API path with placeholders so label cardinality stays bounded.
func RouteLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "lists", "items":
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// Flush forwards to the wrapped writer so streamed MCP responses keep working.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the wrapped writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
