// Package metrics exposes Prometheus counters for store changes and HTTP
// traffic on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the app collectors on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	mutations    *prometheus.CounterVec
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	wsClients    prometheus.GaugeFunc
	heartBursts  prometheus.Counter
	celebrations prometheus.Counter
}

// New registers every collector. clients reports connected tabs; it may be
// nil.
func New(clients func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "birthday",
			Name:      "store_mutations_total",
			Help:      "Committed store mutations by collection and op.",
		}, []string{"collection", "op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "birthday",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "birthday",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		heartBursts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "birthday",
			Name:      "heart_bursts_total",
			Help:      "Heart reactions sent.",
		}),
		celebrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "birthday",
			Name:      "celebrations_total",
			Help:      "Celebrate triggers.",
		}),
	}
	if clients == nil {
		clients = func() int { return 0 }
	}
	m.wsClients = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "birthday",
		Name:      "websocket_clients",
		Help:      "Connected tabs.",
	}, func() float64 { return float64(clients()) })

	reg.MustRegister(
		m.mutations, m.requests, m.duration, m.wsClients, m.heartBursts, m.celebrations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Mutation(collection, op string) {
	m.mutations.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) HeartBurst() { m.heartBursts.Inc() }

func (m *Metrics) Celebration() { m.celebrations.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by chi route pattern so ids don't explode the
// label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
