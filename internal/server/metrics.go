package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	identified  *prometheus.CounterVec
	simulations *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pidtune_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pidtune_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		identified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pidtune_identifications_total",
				Help: "Identification attempts by method and result",
			},
			[]string{"method", "result"},
		),
		simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pidtune_simulations_total",
				Help: "Closed-loop simulations by tuning rule and stability",
			},
			[]string{"rule", "stable"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pidtune_simulation_cache_total",
				Help: "Simulation cache lookups by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.identified, m.simulations, m.cache)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument records status and latency per matched route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
