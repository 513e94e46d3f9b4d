package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/wave"
)

// Metrics holds every collector on its own registry. Labels are bounded:
// no per-player or per-IP values.
type Metrics struct {
	registry *prometheus.Registry

	stepDuration    prometheus.Histogram
	frameSteps      prometheus.Histogram
	framesTruncated prometheus.Counter
	waves           *prometheus.CounterVec
	directorErrors  prometheus.Counter
	currentWave     prometheus.Gauge

	requestLatency *prometheus.HistogramVec
	requestTotal   *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	wsConnections  prometheus.Gauge
	wsMessages     prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "snowbros_step_duration_seconds",
			Help:    "Time spent in one fixed simulation step",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.016},
		}),
		frameSteps: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "snowbros_frame_steps",
			Help:    "Fixed steps run per host frame",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12},
		}),
		framesTruncated: f.NewCounter(prometheus.CounterOpts{
			Name: "snowbros_frames_truncated_total",
			Help: "Frames whose elapsed time was capped",
		}),
		waves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "snowbros_waves_total",
			Help: "Waves started, by config source",
		}, []string{"source"}),
		directorErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "snowbros_director_errors_total",
			Help: "Director requests that failed or timed out",
		}),
		currentWave: f.NewGauge(prometheus.GaugeOpts{
			Name: "snowbros_wave",
			Help: "Most recently started wave",
		}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		requestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connection_rejected_total",
			Help: "Requests rejected by rate limiting or connection caps",
		}, []string{"reason"}),
		wsConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Currently active WebSocket connections",
		}),
		wsMessages: f.NewCounter(prometheus.CounterOpts{
			Name: "websocket_messages_total",
			Help: "Total WebSocket messages sent",
		}),
	}
}

// ObserveStep records the duration of one simulation step.
func (m *Metrics) ObserveStep(d time.Duration) {
	m.stepDuration.Observe(d.Seconds())
}

// ObserveFrame records how many steps a host frame ran.
func (m *Metrics) ObserveFrame(steps int, truncated bool) {
	m.frameSteps.Observe(float64(steps))
	if truncated {
		m.framesTruncated.Inc()
	}
}

// ObserveWave records a started wave and any director failure behind it.
func (m *Metrics) ObserveWave(n int, source wave.Source, err error) {
	m.waves.WithLabelValues(string(source)).Inc()
	m.currentWave.Set(float64(n))
	if err != nil {
		m.directorErrors.Inc()
	}
}

// RecordRejected counts a refused request.
func (m *Metrics) RecordRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records latency and status per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	})
}
