package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// mockRepository is a test double for outbox.Repository
type mockRepository struct {
	mu           sync.Mutex
	messages     []*outbox.Message
	publishedIDs []int64
	failedIDs    []int64
	deadIDs      []int64
	getErr       error
}

func (r *mockRepository) Save(_ context.Context, msg *outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = int64(len(r.messages) + 1)
	r.messages = append(r.messages, msg)
	return nil
}

func (r *mockRepository) GetUnpublished(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}

	var result []*outbox.Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *mockRepository) find(id int64) *outbox.Message {
	for _, msg := range r.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

func (r *mockRepository) MarkPublished(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishedIDs = append(r.publishedIDs, id)
	now := time.Now()
	r.find(id).PublishedAt = &now
	return nil
}

func (r *mockRepository) MarkFailed(_ context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedIDs = append(r.failedIDs, id)
	msg := r.find(id)
	msg.RetryCount++
	msg.LastError = errMsg
	msg.NextRetryAt = &nextRetryAt
	return nil
}

func (r *mockRepository) MarkDead(_ context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadIDs = append(r.deadIDs, id)
	now := time.Now()
	msg := r.find(id)
	msg.DeadLetteredAt = &now
	msg.DeadLetterReason = reason
	return nil
}

func (r *mockRepository) Counts(context.Context) (outbox.Counts, error) {
	return outbox.Counts{}, nil
}

func (r *mockRepository) DeleteOld(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// mockPublisher is a test double for eventbus.Publisher
type mockPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *mockPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, repo outbox.Repository, keys ...string) {
	t.Helper()
	publisher := outbox.NewPublisher(repo)
	for _, key := range keys {
		require.NoError(t, publisher.Publish(context.Background(), key, []byte(`{"event_id":"e-`+key+`","aggregate_id":"blk-1"}`)))
	}
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := &mockRepository{}
	pub := &mockPublisher{}
	seed(t, repo, "blocking.block.created", "blocking.block.deleted")

	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, pub, outbox.DefaultProcessorConfig(), testLogger()).WithMetrics(metrics)

	n, err := processor.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"blocking.block.created", "blocking.block.deleted"}, pub.published)
	assert.Equal(t, []int64{1, 2}, repo.publishedIDs)
	assert.Equal(t, uint64(2), processor.GetStats().PublishedCount)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOutboxPublished, observability.T("routing_key", "blocking.block.created")))

	n, err = processor.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessor_FailureSchedulesRetry(t *testing.T) {
	repo := &mockRepository{}
	pub := &mockPublisher{err: errors.New("broker down")}
	seed(t, repo, "blocking.block.created")

	processor := outbox.NewProcessor(repo, pub, outbox.ProcessorConfig{
		MaxRetries:       3,
		RetryBackoffBase: time.Hour,
		RetryBackoffMax:  2 * time.Hour,
	}, testLogger())

	n, err := processor.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int64{1}, repo.failedIDs)
	msg := repo.messages[0]
	assert.Equal(t, 1, msg.RetryCount)
	assert.Equal(t, "broker down", msg.LastError)
	require.NotNil(t, msg.NextRetryAt)
	assert.True(t, msg.NextRetryAt.After(time.Now().Add(50*time.Minute)))
	assert.Equal(t, uint64(1), processor.GetStats().FailedCount)

	// not due yet
	n, err = processor.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, repo.failedIDs, 1)
}

func TestProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := &mockRepository{}
	pub := &mockPublisher{err: errors.New("broker down")}
	seed(t, repo, "blocking.block.created")
	repo.messages[0].RetryCount = 2

	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, pub, outbox.ProcessorConfig{MaxRetries: 3}, testLogger()).WithMetrics(metrics)

	_, err := processor.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, repo.deadIDs)
	assert.Empty(t, repo.failedIDs)
	assert.True(t, repo.messages[0].IsDead())
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOutboxDeadLettered, observability.T("routing_key", "blocking.block.created")))
}

func TestProcessor_RepositoryError(t *testing.T) {
	repo := &mockRepository{getErr: errors.New("db locked")}
	processor := outbox.NewProcessor(repo, &mockPublisher{}, outbox.DefaultProcessorConfig(), testLogger())

	_, err := processor.ProcessOnce(context.Background())

	require.Error(t, err)
	assert.Equal(t, "db locked", processor.GetStats().LastError)
}

func TestProcessor_FlushDrainsBatches(t *testing.T) {
	repo := &mockRepository{}
	pub := &mockPublisher{}
	seed(t, repo, "a", "b", "c", "d", "e")

	processor := outbox.NewProcessor(repo, pub, outbox.ProcessorConfig{BatchSize: 2}, testLogger())

	n, err := processor.Flush(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, pub.published, 5)
}

func TestProcessor_RunStopsOnCancel(t *testing.T) {
	repo := &mockRepository{}
	pub := &mockPublisher{}
	seed(t, repo, "blocking.block.created")

	processor := outbox.NewProcessor(repo, pub, outbox.ProcessorConfig{PollInterval: 10 * time.Millisecond}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- processor.Run(ctx) }()

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.published) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}

func TestPublisher_RejectsInvalidEnvelope(t *testing.T) {
	publisher := outbox.NewPublisher(&mockRepository{})
	err := publisher.Publish(context.Background(), "x", []byte("not json"))
	assert.Error(t, err)
}
