package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elskow/pypackager/internal/pipeline/types"
)

type BuildMetrics struct {
	StartTime     time.Time
	BuildDuration time.Duration
	LineCount     int
}

type MetricsCollector struct {
	metrics map[string]*BuildMetrics
	mu      sync.RWMutex

	registry      *prometheus.Registry
	buildDuration prometheus.Histogram
	buildOutcomes *prometheus.CounterVec
	outputLines   prometheus.Counter
	toolInstalls  *prometheus.CounterVec
}

// NewMetricsCollector registers the build metrics on reg, or on a private
// registry when reg is nil.
func NewMetricsCollector(reg *prometheus.Registry) *MetricsCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	mc := &MetricsCollector{
		metrics:  make(map[string]*BuildMetrics),
		registry: reg,
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pypackager",
			Name:      "build_duration_seconds",
			Help:      "Wall-clock duration of packaging builds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		buildOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pypackager",
			Name:      "build_outcomes_total",
			Help:      "Builds by final outcome",
		}, []string{"outcome"}),
		outputLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pypackager",
			Name:      "output_lines_total",
			Help:      "Output lines received from the packaging tool",
		}),
		toolInstalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pypackager",
			Name:      "tool_installs_total",
			Help:      "Packaging tool install attempts by result",
		}, []string{"result"}),
	}
	reg.MustRegister(mc.buildDuration, mc.buildOutcomes, mc.outputLines, mc.toolInstalls)
	return mc
}

func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

func (mc *MetricsCollector) StartBuild(buildID string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics[buildID] = &BuildMetrics{
		StartTime: time.Now(),
	}
}

func (mc *MetricsCollector) ObserveLine(buildID string) {
	mc.outputLines.Inc()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if m, exists := mc.metrics[buildID]; exists {
		m.LineCount++
	}
}

func (mc *MetricsCollector) ObserveInstall(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	mc.toolInstalls.WithLabelValues(result).Inc()
}

// EndBuild records the outcome and forgets the per-build entry.
func (mc *MetricsCollector) EndBuild(buildID string, outcome types.Outcome) *BuildMetrics {
	mc.buildOutcomes.WithLabelValues(string(outcome)).Inc()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	m, exists := mc.metrics[buildID]
	if !exists {
		return nil
	}
	delete(mc.metrics, buildID)

	m.BuildDuration = time.Since(m.StartTime)
	mc.buildDuration.Observe(m.BuildDuration.Seconds())
	return m
}

// WriteTextfile exports the current metrics in the node_exporter textfile format.
func (mc *MetricsCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, mc.registry)
}
