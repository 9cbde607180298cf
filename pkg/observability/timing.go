package observability

import (
	"log/slog"
	"time"
)

// Timer measures one operation and reports it as duration and count metrics.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
}

// StartTimer starts timing operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records a successful run.
func (t *Timer) Stop() time.Duration {
	return t.StopWithError(nil)
}

// StopWithError records the run, counting it as an error when err is non-nil.
func (t *Timer) StopWithError(err error) time.Duration {
	elapsed := time.Since(t.start)

	if t.logger != nil {
		attrs := []any{"operation", t.operation, "duration_ms", elapsed.Milliseconds()}
		if err != nil {
			t.logger.Warn("operation failed", append(attrs, "error", err)...)
		} else {
			t.logger.Debug("operation completed", attrs...)
		}
	}

	if t.metrics != nil {
		tags := append([]Tag{T("operation", t.operation)}, t.tags...)
		t.metrics.Timing(MetricOperationDuration, elapsed, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tags...)
		}
	}
	return elapsed
}
