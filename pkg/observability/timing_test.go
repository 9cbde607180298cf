package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimer_Stop(t *testing.T) {
	metrics := NewInMemoryMetrics()

	StartTimer("blocking.submit").WithMetrics(metrics).WithTags(T(StatusKey, "success")).Stop()

	tags := []Tag{T("operation", "blocking.submit"), T(StatusKey, "success")}
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal, tags...))
	assert.Len(t, metrics.GetTimings(MetricOperationDuration, tags...), 1)
	assert.Zero(t, metrics.GetCounter(MetricOperationErrors, tags...))
}

func TestTimer_StopWithError(t *testing.T) {
	metrics := NewInMemoryMetrics()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	StartTimer("blocking.delete").WithMetrics(metrics).WithLogger(logger).StopWithError(errors.New("timeout"))

	op := T("operation", "blocking.delete")
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationErrors, op))
	assert.Contains(t, buf.String(), "operation failed")
	assert.Contains(t, buf.String(), "error=timeout")
}

func TestContextValues(t *testing.T) {
	ctx := WithCorrelationID(t.Context(), "")
	assert.Len(t, CorrelationIDFromContext(ctx), 36)

	ctx = WithActorID(ctx, "")
	assert.Empty(t, ActorIDFromContext(ctx))

	ctx = WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(nil))
}
