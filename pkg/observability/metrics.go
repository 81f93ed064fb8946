package observability

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by TaskMate.
const (
	MetricMutations       = "taskstore.mutations"
	MetricTasks           = "taskstore.tasks"
	MetricPoints          = "taskstore.points"
	MetricLoadFailed      = "taskstore.load.failed"
	MetricPersistSaved    = "taskstore.persist.saved"
	MetricPersistFailed   = "taskstore.persist.failed"
	MetricPersistDuration = "taskstore.persist.duration"
	MetricEventsPublished = "events.published"
	MetricEventsFailed    = "events.publish.failed"
	MetricEventsDropped   = "events.dropped"
	MetricMirrorSucceeded = "mirror.push.succeeded"
	MetricMirrorFailed    = "mirror.push.failed"
	MetricMirrorDuration  = "mirror.push.duration"
	MetricHTTPRequests    = "http.requests"
	MetricHTTPDuration    = "http.request.duration"
)

// Metrics records counters, gauges and durations.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a metric label.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// TimingStats summarizes the durations recorded under one key.
type TimingStats struct {
	Count int           `json:"count"`
	Total time.Duration `json:"total_ns"`
	Max   time.Duration `json:"max_ns"`
}

// Mean returns the average duration, or zero when nothing was recorded.
func (s TimingStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Snapshot is a point-in-time copy of every metric, keyed by name and tags.
type Snapshot struct {
	Counters map[string]int64       `json:"counters"`
	Gauges   map[string]float64     `json:"gauges"`
	Timings  map[string]TimingStats `json:"timings"`
}

// InMemoryMetrics keeps metrics in process. The serve command exposes
// them on /api/v1/metrics.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]TimingStats
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]TimingStats),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[formatKey(name, tags)] = value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := formatKey(name, tags)
	s := m.timings[key]
	s.Count++
	s.Total += duration
	s.Max = max(s.Max, duration)
	m.timings[key] = s
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetGauge returns the last value set on a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[formatKey(name, tags)]
}

// GetTiming returns the summary for a timing.
func (m *InMemoryMetrics) GetTiming(name string, tags ...Tag) TimingStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timings[formatKey(name, tags)]
}

// Snapshot copies every metric.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Counters: maps.Clone(m.counters),
		Gauges:   maps.Clone(m.gauges),
		Timings:  maps.Clone(m.timings),
	}
}

// Reset clears all recorded metrics.
func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.counters)
	clear(m.gauges)
	clear(m.timings)
}

// formatKey renders name:k=v:k=v with tags sorted by key so the order
// callers pass them in does not matter.
func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	for _, t := range sorted {
		b.WriteByte(':')
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	return b.String()
}
