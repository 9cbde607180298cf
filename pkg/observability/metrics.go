package observability

import (
	"maps"
	"strings"
	"sync"
	"time"
)

// Metrics records counters and timings. Implementations must be safe for
// concurrent use.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag labels a metric.
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
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps metrics for the lifetime of one CLI run. Series are
// keyed by name plus tags in the order given.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	key := seriesKey(name, tags)
	m.mu.Lock()
	m.timings[key] = append(m.timings[key], duration)
	m.mu.Unlock()
}

// GetCounter returns the value of one counter series.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

// GetTimings returns a copy of the durations recorded for one series.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.timings[seriesKey(name, tags)]...)
}

// Counters returns a copy of every counter series.
func (m *InMemoryMetrics) Counters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.counters)
}

func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, t := range tags {
		b.WriteByte(':')
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	return b.String()
}

// Metric names.
const (
	// Operation metrics
	MetricOperationTotal    = "salonops.operation.total"
	MetricOperationDuration = "salonops.operation.duration"
	MetricOperationErrors   = "salonops.operation.errors"

	// Blocking metrics
	MetricBlocksCreated      = "salonops.blocks.created"
	MetricBlocksUpdated      = "salonops.blocks.updated"
	MetricBlocksDeleted      = "salonops.blocks.deleted"
	MetricBlocksSkipped      = "salonops.blocks.skipped"
	MetricValidationFailures = "salonops.blocks.validation_failures"
	MetricSubmissionFailures = "salonops.blocks.submission_failures"

	// Block API metrics
	MetricAPIRequests      = "salonops.api.requests"
	MetricAPIErrors        = "salonops.api.errors"
	MetricAPIBreakerChange = "salonops.api.breaker_state_changes"

	// Bookings cache metrics
	MetricCacheHits          = "salonops.cache.hits"
	MetricCacheMisses        = "salonops.cache.misses"
	MetricCacheInvalidations = "salonops.cache.invalidations"

	// Outbox metrics
	MetricOutboxPublished    = "salonops.outbox.published"
	MetricOutboxDeadLettered = "salonops.outbox.dead_lettered"

	// Event bus metrics
	MetricEventsPublished = "salonops.events.published"
)
