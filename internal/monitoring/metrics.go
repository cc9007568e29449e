// Package monitoring provides timing and row-count metrics for pipeline stages.
package monitoring

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StageMetrics represents performance metrics for a single pipeline stage.
type StageMetrics struct {
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration"`
	Rows       int           `json:"rows"`
	MemoryUsed int64         `json:"memory_used"`
	Failed     bool          `json:"failed"`
}

// MetricsCollector collects stage metrics and mirrors them into a private
// Prometheus registry.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetrics
	enabled bool

	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	rows     *prometheus.GaugeVec
	failures *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &MetricsCollector{
		metrics:  make([]StageMetrics, 0),
		enabled:  enabled,
		registry: reg,
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roadsafety_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		rows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadsafety_stage_rows",
			Help: "Rows in the table after each pipeline stage",
		}, []string{"stage"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roadsafety_stage_failures_total",
			Help: "Pipeline stages that returned an error",
		}, []string{"stage"}),
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordStage executes fn and records its duration, the row count it
// reports and the heap growth it caused.
func (mc *MetricsCollector) RecordStage(stage string, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	rows, err := fn()

	duration := time.Since(start)
	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	// Alloc can shrink across a GC
	memoryUsed := int64(memAfter.TotalAlloc - memBefore.TotalAlloc) //nolint:gosec // bounded by process allocation

	m := StageMetrics{
		Stage:      stage,
		Duration:   duration,
		Rows:       rows,
		MemoryUsed: memoryUsed,
		Failed:     err != nil,
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	mc.mu.Unlock()

	mc.duration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		mc.failures.WithLabelValues(stage).Inc()
	} else {
		mc.rows.WithLabelValues(stage).Set(float64(rows))
	}
	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []StageMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]StageMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Registry exposes the Prometheus registry holding the stage series.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// WriteTextfile writes the registry in the Prometheus text exposition format,
// suitable for the node_exporter textfile collector.
func (mc *MetricsCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, mc.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	s := MetricsSummary{
		TotalStages: len(mc.metrics),
		StageOrder:  make([]string, 0, len(mc.metrics)),
	}
	for _, m := range mc.metrics {
		s.TotalDuration += m.Duration
		s.TotalMemory += m.MemoryUsed
		s.StageOrder = append(s.StageOrder, m.Stage)
		if m.Failed {
			s.Failures++
		}
	}
	s.AverageDuration = s.TotalDuration / time.Duration(len(mc.metrics))
	return s
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalStages     int           `json:"total_stages"`
	TotalDuration   time.Duration `json:"total_duration"`
	TotalMemory     int64         `json:"total_memory"`
	Failures        int           `json:"failures"`
	StageOrder      []string      `json:"stage_order"`
	AverageDuration time.Duration `json:"average_duration"`
}

// String renders the summary on one line.
func (s MetricsSummary) String() string {
	return fmt.Sprintf("%d stages (%s) in %s, avg %s, %d bytes allocated, %d failed",
		s.TotalStages, strings.Join(s.StageOrder, " -> "), s.TotalDuration,
		s.AverageDuration, s.TotalMemory, s.Failures)
}
