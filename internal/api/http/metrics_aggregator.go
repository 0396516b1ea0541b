package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flows"
	"github.com/GriffinCanCode/flowgallery/internal/domain/registry"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
)

// MetricsAggregator combines request metrics with registry and flow state
type MetricsAggregator struct {
	metrics  *monitoring.Metrics
	registry *registry.Registry
	flows    *flows.Manager
}

// NewMetricsAggregator creates a metrics aggregator
func NewMetricsAggregator(metrics *monitoring.Metrics, reg *registry.Registry, flowManager *flows.Manager) *MetricsAggregator {
	return &MetricsAggregator{
		metrics:  metrics,
		registry: reg,
		flows:    flowManager,
	}
}

// MetricsSnapshot represents a snapshot of the service state
type MetricsSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Backend   monitoring.Snapshot `json:"backend"`
	Registry  registry.Stats      `json:"registry"`
	Flows     flows.Stats         `json:"flows"`
	Summary   MetricsSummary      `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests    int64   `json:"total_requests"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
	FetchFailureRate float64 `json:"template_fetch_failure_rate"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// GetAggregatedMetrics returns the JSON snapshot
func (ma *MetricsAggregator) GetAggregatedMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, ma.Collect())
}

// Collect builds a snapshot
func (ma *MetricsAggregator) Collect() MetricsSnapshot {
	backend := ma.metrics.Snapshot()
	return MetricsSnapshot{
		Timestamp: time.Now(),
		Backend:   backend,
		Registry:  ma.registry.Stats(),
		Flows:     ma.flows.Stats(),
		Summary:   summarize(backend),
	}
}

func summarize(s monitoring.Snapshot) MetricsSummary {
	summary := MetricsSummary{
		TotalRequests:    s.TotalRequests,
		AverageLatencyMs: s.AvgLatencyMs,
		UptimeSeconds:    s.UptimeSeconds,
	}
	if s.TotalRequests > 0 {
		summary.ErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	}
	if s.TemplateFetches > 0 {
		summary.FetchFailureRate = float64(s.FetchFailures) / float64(s.TemplateFetches)
	}
	return summary
}
