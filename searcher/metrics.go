package searcher

import (
	"time"
)

type SearchMetrics struct {
	StartTime time.Time
	Duration  time.Duration
	Depths    int
	Expanded  int64
	Leaves    int64
	Horizon   int64
	Cutoffs   int64
}

// MetricsCollector observes a search across all of its depths.
type MetricsCollector interface {
	Start()
	AddExpansion()
	AddLeaf(horizon bool)
	AddCutoff()
	CompleteDepth()
	Complete() SearchMetrics
}

// A search runs on a single goroutine, so the counters need no atomics.
type metricsCollector struct {
	startTime time.Time
	depths    int
	expanded  int64
	leaves    int64
	horizon   int64
	cutoffs   int64
}

func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{}
}

func (m *metricsCollector) Start() {
	*m = metricsCollector{startTime: time.Now()}
}

func (m *metricsCollector) AddExpansion() {
	m.expanded++
}

func (m *metricsCollector) AddLeaf(horizon bool) {
	m.leaves++
	if horizon {
		m.horizon++
	}
}

func (m *metricsCollector) AddCutoff() {
	m.cutoffs++
}

func (m *metricsCollector) CompleteDepth() {
	m.depths++
}

func (m *metricsCollector) Complete() SearchMetrics {
	return SearchMetrics{
		StartTime: m.startTime,
		Duration:  time.Since(m.startTime),
		Depths:    m.depths,
		Expanded:  m.expanded,
		Leaves:    m.leaves,
		Horizon:   m.horizon,
		Cutoffs:   m.cutoffs,
	}
}

type noMetricsCollector struct{}

func NewNoMetricsCollector() MetricsCollector {
	return &noMetricsCollector{}
}

func (m *noMetricsCollector) Start()                  {}
func (m *noMetricsCollector) AddExpansion()           {}
func (m *noMetricsCollector) AddLeaf(bool)            {}
func (m *noMetricsCollector) AddCutoff()              {}
func (m *noMetricsCollector) CompleteDepth()          {}
func (m *noMetricsCollector) Complete() SearchMetrics { return SearchMetrics{} }
