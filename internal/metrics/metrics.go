package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limaJavier/school-timetabling/pkg/search"
)

// MetricsService encapsulates Prometheus instrumentation of solves and HTTP requests.
// It implements timetable.Observer
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	solves          *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	searchNodes     prometheus.Histogram
	searchBacktrack prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

// NewMetricsService registers the collectors on a private registry
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solves_total",
		Help: "Total number of finished solves by outcome",
	}, []string{"status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Wall-clock duration of the search",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"status"})

	searchNodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_search_nodes",
		Help:    "Branching decisions taken per solve",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	})

	searchBacktrack := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_search_backtracks",
		Help:    "Decisions undone per solve",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(solves, solveDuration, searchNodes, searchBacktrack, requestDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		solves:          solves,
		solveDuration:   solveDuration,
		searchNodes:     searchNodes,
		searchBacktrack: searchBacktrack,
		requestDuration: requestDuration,
	}
}

// Handler exposes the Prometheus HTTP handler
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsService) ObserveSolve(status search.Status, stats search.Stats) {
	if m == nil {
		return
	}
	label := status.String()
	m.solves.WithLabelValues(label).Inc()
	m.solveDuration.WithLabelValues(label).Observe(stats.Duration.Seconds())
	m.searchNodes.Observe(float64(stats.Nodes))
	m.searchBacktrack.Observe(float64(stats.Backtracks))
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}

// WriteTextfile dumps every metric in the text exposition format, for node_exporter's textfile collector
func (m *MetricsService) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
