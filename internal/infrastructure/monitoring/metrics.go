package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flowgallery"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Template metrics
	TemplateFetches       *prometheus.CounterVec
	TemplateFetchDuration prometheus.Histogram
	RegistryTemplates     prometheus.Gauge
	RegistryCategories    prometheus.Gauge
	OverrideActive        prometheus.Gauge
	OverrideTimestamp     prometheus.Gauge

	// Flow metrics
	FlowsCreated *prometheus.CounterVec
	FlowsActive  prometheus.Gauge

	// Component metrics
	ComponentCalls    *prometheus.CounterVec
	ComponentDuration *prometheus.HistogramVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON status API
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	TemplateFetches int64   `json:"template_fetches"`
	FetchFailures   int64   `json:"template_fetch_failures"`
	FlowsCreated    int64   `json:"flows_created"`
	FlowsActive     int64   `json:"flows_active"`
	ComponentCalls  int64   `json:"component_calls"`
	UptimeSeconds   float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Template metrics
		TemplateFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "template_fetches_total",
				Help:      "Remote template fetches by outcome",
			},
			[]string{"outcome"},
		),
		TemplateFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "template_fetch_duration_seconds",
				Help:      "Remote template fetch duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		RegistryTemplates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_templates",
				Help:      "Number of templates in the registry",
			},
		),
		RegistryCategories: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_categories",
				Help:      "Number of template categories in the registry",
			},
		),
		OverrideActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_override_active",
				Help:      "1 when the remote template override is populated",
			},
		),
		OverrideTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_override_timestamp_seconds",
				Help:      "Unix time the override was last populated",
			},
		),

		// Flow metrics
		FlowsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flows_created_total",
				Help:      "Flows created from templates by category",
			},
			[]string{"category"},
		),
		FlowsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "flows_active",
				Help:      "Number of stored flows",
			},
		),

		// Component metrics
		ComponentCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "component_calls_total",
				Help:      "SDLC component calls by result status",
			},
			[]string{"component", "status"},
		),
		ComponentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "component_duration_seconds",
				Help:      "SDLC component call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"component"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTemplateFetch records a remote template fetch
func (m *Metrics) RecordTemplateFetch(outcome string, duration time.Duration) {
	m.TemplateFetches.WithLabelValues(outcome).Inc()
	m.TemplateFetchDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TemplateFetches++
	if outcome != "ok" {
		m.snapshot.FetchFailures++
	}
	m.mu.Unlock()
}

// SetRegistry mirrors the registry size and override state into gauges
func (m *Metrics) SetRegistry(templates, categories int, overriddenAt time.Time) {
	m.RegistryTemplates.Set(float64(templates))
	m.RegistryCategories.Set(float64(categories))
	if overriddenAt.IsZero() {
		m.OverrideActive.Set(0)
		return
	}
	m.OverrideActive.Set(1)
	m.OverrideTimestamp.Set(float64(overriddenAt.Unix()))
}

// RecordFlowCreated counts a flow created from a template of category
func (m *Metrics) RecordFlowCreated(category string) {
	m.FlowsCreated.WithLabelValues(category).Inc()
	m.mu.Lock()
	m.snapshot.FlowsCreated++
	m.mu.Unlock()
}

// SetFlowsActive sets the number of stored flows
func (m *Metrics) SetFlowsActive(count int) {
	m.FlowsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.FlowsActive = int64(count)
	m.mu.Unlock()
}

// RecordComponentCall records an SDLC component call
func (m *Metrics) RecordComponentCall(component, status string, duration time.Duration) {
	m.ComponentCalls.WithLabelValues(component, status).Inc()
	m.ComponentDuration.WithLabelValues(component).Observe(duration.Seconds())
	m.mu.Lock()
	m.snapshot.ComponentCalls++
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON status API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.TotalRequests > 0 {
		s.AvgLatencyMs = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
