package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.Counter(MetricMutations, 1)
		m.Gauge(MetricTasks, 3)
		m.Timing(MetricPersistDuration, time.Millisecond)
	})
}

func TestInMemoryMetrics_Counter(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricMutations, 1, T("kind", "created"))
	m.Counter(MetricMutations, 1, T("kind", "created"))
	m.Counter(MetricMutations, 1, T("kind", "deleted"))

	assert.Equal(t, int64(2), m.GetCounter(MetricMutations, T("kind", "created")))
	assert.Equal(t, int64(1), m.GetCounter(MetricMutations, T("kind", "deleted")))
	assert.Zero(t, m.GetCounter(MetricMutations), "untagged key is distinct")
}

func TestInMemoryMetrics_TagOrderIgnored(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricHTTPRequests, 1, T("method", "GET"), T("status", "200"))
	m.Counter(MetricHTTPRequests, 1, T("status", "200"), T("method", "GET"))

	assert.Equal(t, int64(2), m.GetCounter(MetricHTTPRequests, T("method", "GET"), T("status", "200")))
	assert.Contains(t, m.Snapshot().Counters, "http.requests:method=GET:status=200")
}

func TestInMemoryMetrics_Gauge(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Gauge(MetricPoints, 2.5, T("person", "A"))
	m.Gauge(MetricPoints, 4, T("person", "A"))
	m.Gauge(MetricPoints, 1.5, T("person", "B"))

	assert.Equal(t, 4.0, m.GetGauge(MetricPoints, T("person", "A")))
	assert.Equal(t, 1.5, m.GetGauge(MetricPoints, T("person", "B")))
}

func TestInMemoryMetrics_Timing(t *testing.T) {
	m := NewInMemoryMetrics()
	assert.Zero(t, m.GetTiming(MetricPersistDuration).Mean())

	m.Timing(MetricPersistDuration, 10*time.Millisecond)
	m.Timing(MetricPersistDuration, 30*time.Millisecond)

	stats := m.GetTiming(MetricPersistDuration)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 40*time.Millisecond, stats.Total)
	assert.Equal(t, 30*time.Millisecond, stats.Max)
	assert.Equal(t, 20*time.Millisecond, stats.Mean())
}

func TestInMemoryMetrics_SnapshotIsCopy(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Counter(MetricEventsPublished, 1)
	m.Gauge(MetricTasks, 2)

	snap := m.Snapshot()
	snap.Counters[MetricEventsPublished] = 99
	snap.Gauges[MetricTasks] = 99

	assert.Equal(t, int64(1), m.GetCounter(MetricEventsPublished))
	assert.Equal(t, 2.0, m.GetGauge(MetricTasks))
}

func TestInMemoryMetrics_Reset(t *testing.T) {
	m := NewInMemoryMetrics()
	m.Counter(MetricMirrorFailed, 1)
	m.Gauge(MetricTasks, 5)
	m.Timing(MetricMirrorDuration, time.Second)

	m.Reset()

	snap := m.Snapshot()
	assert.Empty(t, snap.Counters)
	assert.Empty(t, snap.Gauges)
	assert.Empty(t, snap.Timings)
}

func TestInMemoryMetrics_Concurrent(t *testing.T) {
	m := NewInMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Counter(MetricEventsPublished, 1)
			m.Timing(MetricMirrorDuration, time.Millisecond)
			_ = m.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.GetCounter(MetricEventsPublished))
	assert.Equal(t, 50, m.GetTiming(MetricMirrorDuration).Count)
}
