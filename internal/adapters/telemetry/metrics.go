package telemetry

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// DefaultBuckets are histogram upper bounds in seconds.
var DefaultBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// MetricsTelemetry keeps counters and duration histograms in memory.
type MetricsTelemetry struct {
	service string
	buckets []float64

	mu       sync.RWMutex
	stages   map[Stage]*histogram
	failures map[Stage]int64
	cached   map[Stage]int64
	errors   map[string]int64
	datasets map[string]*datasetCounter
	closed   bool
}

type histogram struct {
	counts []int64
	count  int64
	sum    float64
	max    float64
}

type datasetCounter struct {
	loads  int64
	misses int64
	rows   int64
}

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("telemetry closed")

// NewMetricsTelemetry creates a new in-process metrics adapter.
func NewMetricsTelemetry(config *Config) *MetricsTelemetry {
	m := &MetricsTelemetry{
		buckets:  DefaultBuckets,
		stages:   make(map[Stage]*histogram),
		failures: make(map[Stage]int64),
		cached:   make(map[Stage]int64),
		errors:   make(map[string]int64),
		datasets: make(map[string]*datasetCounter),
	}
	if config != nil {
		m.service = config.ServiceName
	}
	return m
}

// RecordStage records a stage duration.
func (m *MetricsTelemetry) RecordStage(ctx context.Context, info StageInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.stages[info.Stage]
	if !ok {
		h = &histogram{counts: make([]int64, len(m.buckets)+1)}
		m.stages[info.Stage] = h
	}
	secs := info.Duration.Seconds()
	h.counts[sort.SearchFloat64s(m.buckets, secs)]++
	h.count++
	h.sum += secs
	if secs > h.max {
		h.max = secs
	}
	if !info.Success {
		m.failures[info.Stage]++
	}
	if info.Cached {
		m.cached[info.Stage]++
	}
}

// RecordError counts an error by stage.
func (m *MetricsTelemetry) RecordError(ctx context.Context, info ErrorInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(info.Stage)
	if key == "" {
		key = "unknown"
	}
	m.errors[key]++
}

// RecordDataset counts a table load by source.
func (m *MetricsTelemetry) RecordDataset(ctx context.Context, info DatasetInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.datasets[info.Source]
	if !ok {
		d = &datasetCounter{}
		m.datasets[info.Source] = d
	}
	d.loads++
	if !info.Found {
		d.misses++
	}
	d.rows += int64(info.Rows)
}

// Flush is a no-op; metrics are updated on each record.
func (m *MetricsTelemetry) Flush(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the adapter closed. Snapshots keep working.
func (m *MetricsTelemetry) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Bucket counts observations at or below LE seconds.
type Bucket struct {
	LE    float64 `json:"le"`
	Count int64   `json:"count"`
}

// StageStats summarizes one stage.
type StageStats struct {
	Count       int64    `json:"count"`
	Failures    int64    `json:"failures"`
	CacheHits   int64    `json:"cacheHits"`
	SumSeconds  float64  `json:"sumSeconds"`
	MaxSeconds  float64  `json:"maxSeconds"`
	MeanSeconds float64  `json:"meanSeconds"`
	Buckets     []Bucket `json:"buckets"`
}

// DatasetStats summarizes loads from one source.
type DatasetStats struct {
	Loads  int64 `json:"loads"`
	Misses int64 `json:"misses"`
	Rows   int64 `json:"rows"`
}

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	Service  string                  `json:"service,omitempty"`
	Stages   map[Stage]StageStats    `json:"stages"`
	Errors   map[string]int64        `json:"errors"`
	Datasets map[string]DatasetStats `json:"datasets"`
}

// Snapshot copies the current metrics. Bucket counts are cumulative.
func (m *MetricsTelemetry) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Service:  m.service,
		Stages:   make(map[Stage]StageStats, len(m.stages)),
		Errors:   make(map[string]int64, len(m.errors)),
		Datasets: make(map[string]DatasetStats, len(m.datasets)),
	}
	for stage, h := range m.stages {
		st := StageStats{
			Count:      h.count,
			Failures:   m.failures[stage],
			CacheHits:  m.cached[stage],
			SumSeconds: h.sum,
			MaxSeconds: h.max,
		}
		if h.count > 0 {
			st.MeanSeconds = h.sum / float64(h.count)
		}
		var running int64
		for i, le := range m.buckets {
			running += h.counts[i]
			st.Buckets = append(st.Buckets, Bucket{LE: le, Count: running})
		}
		s.Stages[stage] = st
	}
	for k, v := range m.errors {
		s.Errors[k] = v
	}
	for k, d := range m.datasets {
		s.Datasets[k] = DatasetStats{Loads: d.loads, Misses: d.misses, Rows: d.rows}
	}
	return s
}

var _ Telemetry = (*MetricsTelemetry)(nil)
