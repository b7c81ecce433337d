package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for workspace loading.
type Metrics struct {
	config MetricsConfig

	// Build metrics
	buildsTotal   *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec

	// Graph metrics
	packagesAllocated prometheus.Counter
	targetsAllocated  prometheus.Counter
	lastPackageCount  prometheus.Gauge
	inconsistencies   *prometheus.CounterVec

	// Cargo invocation metrics
	cargoInvocations *prometheus.CounterVec
	cargoDuration    *prometheus.HistogramVec

	// Build message metrics
	messagesByReason  *prometheus.CounterVec
	messagesMalformed prometheus.Counter

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		buildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workspace_builds_total",
				Help:      "Total number of workspace builds by outcome",
			},
			[]string{"outcome"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workspace_build_duration_seconds",
				Help:      "Duration of workspace builds in seconds",
				Buckets:   buckets,
			},
			[]string{"outcome"},
		),

		packagesAllocated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packages_allocated_total",
				Help:      "Total number of package entries allocated across builds",
			},
		),
		targetsAllocated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "targets_allocated_total",
				Help:      "Total number of target entries allocated across builds",
			},
		),
		lastPackageCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workspace_packages",
				Help:      "Number of packages in the most recently built workspace",
			},
		),
		inconsistencies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_inconsistencies_total",
				Help:      "Resolve graph entries skipped because their package id was not listed",
			},
			[]string{"kind"},
		),

		cargoInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cargo_invocations_total",
				Help:      "Total number of cargo invocations",
			},
			[]string{"command", "outcome"},
		),
		cargoDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cargo_invocation_duration_seconds",
				Help:      "Duration of cargo invocations in seconds",
				Buckets:   buckets,
			},
			[]string{"command"},
		),

		messagesByReason: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cargo_messages_total",
				Help:      "Cargo JSON messages observed by reason",
			},
			[]string{"reason"},
		),
		messagesMalformed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cargo_messages_malformed_total",
				Help:      "Cargo output lines skipped because they were not valid messages",
			},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of fatal errors by class and code",
			},
			[]string{"class", "code"},
		),
	}

	registry.MustRegister(
		m.buildsTotal,
		m.buildDuration,
		m.packagesAllocated,
		m.targetsAllocated,
		m.lastPackageCount,
		m.inconsistencies,
		m.cargoInvocations,
		m.cargoDuration,
		m.messagesByReason,
		m.messagesMalformed,
		m.errorsByClass,
	)

	return m, nil
}

// Build Metrics

// RecordBuild records a finished workspace build.
func (m *Metrics) RecordBuild(outcome string, duration time.Duration) {
	if m == nil || m.buildsTotal == nil {
		return
	}
	m.buildsTotal.WithLabelValues(outcome).Inc()
	m.buildDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordGraph records the size of a successfully built workspace.
func (m *Metrics) RecordGraph(packages, targets int) {
	if m == nil || m.packagesAllocated == nil {
		return
	}
	m.packagesAllocated.Add(float64(packages))
	m.targetsAllocated.Add(float64(targets))
	m.lastPackageCount.Set(float64(packages))
}

// RecordInconsistency counts a skipped resolve node or edge.
func (m *Metrics) RecordInconsistency(kind string) {
	if m == nil || m.inconsistencies == nil {
		return
	}
	m.inconsistencies.WithLabelValues(kind).Inc()
}

// Cargo Metrics

// RecordCargoInvocation records one cargo subprocess with its outcome and duration.
func (m *Metrics) RecordCargoInvocation(command, outcome string, duration time.Duration) {
	if m == nil || m.cargoInvocations == nil {
		return
	}
	m.cargoInvocations.WithLabelValues(command, outcome).Inc()
	m.cargoDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordMessage counts a decoded cargo message.
func (m *Metrics) RecordMessage(reason string) {
	if m == nil || m.messagesByReason == nil {
		return
	}
	m.messagesByReason.WithLabelValues(reason).Inc()
}

// RecordMalformedMessage counts a skipped cargo output line.
func (m *Metrics) RecordMalformedMessage() {
	if m == nil || m.messagesMalformed == nil {
		return
	}
	m.messagesMalformed.Inc()
}

// Error Metrics

// RecordError records a fatal error by class and code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m == nil || m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass, errorCode).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() (*http.Server, error) {
	if !m.config.Enabled {
		return nil, nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			log.Error().Err(err).Str("addr", m.config.ListenAddress).Msg("metrics server error")
		}
	}()

	return server, nil
}
