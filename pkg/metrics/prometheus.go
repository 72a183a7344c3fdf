package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the global metrics container for the instance-assembly pipeline.
type Metrics struct {
	// Matrix build metrics (C2/C3)
	MatrixFetchTotal    *prometheus.CounterVec
	MatrixFetchDuration *prometheus.HistogramVec
	MatrixCacheHits     *prometheus.CounterVec
	MatrixCacheMisses   *prometheus.CounterVec
	MatrixSize          *prometheus.HistogramVec

	// Instance build metrics (C4/C5)
	InstanceBuildTotal    *prometheus.CounterVec
	InstanceBuildDuration *prometheus.HistogramVec
	InstanceLocations     *prometheus.HistogramVec
	CompatibilityPairs    *prometheus.HistogramVec

	// Dispatch metrics (C6)
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec

	// System metrics
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics initializes the metrics container under the given namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		MatrixFetchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_fetch_total",
				Help:      "Total number of matrix fetches from the routing backend",
			},
			[]string{"profile", "status"},
		),

		MatrixFetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_fetch_duration_seconds",
				Help:      "Duration of matrix fetches from the routing backend",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"profile"},
		),

		MatrixCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_cache_hits_total",
				Help:      "Total number of matrix cache hits",
			},
			[]string{"profile"},
		),

		MatrixCacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_cache_misses_total",
				Help:      "Total number of matrix cache misses",
			},
			[]string{"profile"},
		),

		MatrixSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_dimension",
				Help:      "Dimension of computed cost matrices",
				Buckets:   []float64{10, 50, 100, 500, 1000, 2000, 5000, 10000},
			},
			[]string{"profile"},
		),

		InstanceBuildTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "instance_build_total",
				Help:      "Total number of problem instance builds",
			},
			[]string{"status"},
		),

		InstanceBuildDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "instance_build_duration_seconds",
				Help:      "Duration of problem instance builds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),

		InstanceLocations: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "instance_locations_total",
				Help:      "Number of distinct locations in built instances",
				Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"profile"},
		),

		CompatibilityPairs: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compatibility_pairs_total",
				Help:      "Number of vehicle/job compatibility pairs evaluated",
				Buckets:   []float64{0, 10, 100, 1000, 10000, 100000},
			},
			[]string{"result"},
		),

		DispatchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dispatch_total",
				Help:      "Total number of problem dispatches to a collaborator",
			},
			[]string{"target", "status"},
		),

		DispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of problem dispatch calls",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"target"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics container, initializing it with defaults if needed.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("vrpcore", "")
	}
	return defaultMetrics
}

// RecordMatrixFetch records a matrix fetch from the routing backend.
func (m *Metrics) RecordMatrixFetch(profile string, success bool, duration time.Duration, dimension int) {
	status := "success"
	if !success {
		status = "error"
	}

	m.MatrixFetchTotal.WithLabelValues(profile, status).Inc()
	m.MatrixFetchDuration.WithLabelValues(profile).Observe(duration.Seconds())
	if success {
		m.MatrixSize.WithLabelValues(profile).Observe(float64(dimension))
	}
}

// RecordMatrixCacheHit records a matrix cache hit for a profile.
func (m *Metrics) RecordMatrixCacheHit(profile string) {
	m.MatrixCacheHits.WithLabelValues(profile).Inc()
}

// RecordMatrixCacheMiss records a matrix cache miss for a profile.
func (m *Metrics) RecordMatrixCacheMiss(profile string) {
	m.MatrixCacheMisses.WithLabelValues(profile).Inc()
}

// RecordInstanceBuild records the outcome of a problem instance build.
func (m *Metrics) RecordInstanceBuild(success bool, duration time.Duration, locations int, profile string) {
	status := "success"
	if !success {
		status = "error"
	}

	m.InstanceBuildTotal.WithLabelValues(status).Inc()
	m.InstanceBuildDuration.WithLabelValues(status).Observe(duration.Seconds())
	if success {
		m.InstanceLocations.WithLabelValues(profile).Observe(float64(locations))
	}
}

// RecordCompatibility records the size of a vehicle/job compatibility evaluation.
func (m *Metrics) RecordCompatibility(result string, pairs int) {
	m.CompatibilityPairs.WithLabelValues(result).Observe(float64(pairs))
}

// RecordDispatch records a dispatch call to a downstream collaborator.
func (m *Metrics) RecordDispatch(target string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}

	m.DispatchTotal.WithLabelValues(target, status).Inc()
	m.DispatchDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// SetServiceInfo sets the service version/environment info gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts an HTTP server exposing /metrics and /health.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write error is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
