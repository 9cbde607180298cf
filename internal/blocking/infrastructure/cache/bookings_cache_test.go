package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) BookingsFor(ctx context.Context, session application.Session, professionalID string, date time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, session, professionalID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

var (
	session = application.Session{AccessToken: "t"}
	day     = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	booked  = []domain.Booking{{Date: "2024-06-10", StartTime: "09:30", EndTime: "09:45", Status: "confirmada"}}
)

func TestKey(t *testing.T) {
	assert.Equal(t, "salonops:bookings:P1:2024-06-10", Key("P1", day))
}

func TestScope(t *testing.T) {
	assert.Equal(t, "actor:admin-1", Scope(application.Session{ActorID: "admin-1", AccessToken: "t"}))
	assert.Equal(t, "anonymous", Scope(application.Session{}))

	byToken := Scope(application.Session{AccessToken: "secret"})
	assert.NotContains(t, byToken, "secret")
	assert.Equal(t, byToken, Scope(application.Session{AccessToken: "secret"}))
	assert.NotEqual(t, byToken, Scope(application.Session{AccessToken: "other"}))
}

func TestBookingsCache_RedisDownFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	provider := new(mockProvider)
	provider.On("BookingsFor", mock.Anything, session, "P1", day).Return(booked, nil).Twice()
	metrics := observability.NewInMemoryMetrics()
	cache := NewBookingsCache(client, provider, time.Minute, nil).WithMetrics(metrics)

	for i := 0; i < 2; i++ {
		got, err := cache.BookingsFor(context.Background(), session, "P1", day)
		require.NoError(t, err)
		assert.Equal(t, booked, got)
	}

	provider.AssertExpectations(t)
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricCacheMisses))
	assert.Error(t, cache.Ping(context.Background()))
}

func TestBookingsCache_ProviderErrorIsReturned(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	provider := new(mockProvider)
	provider.On("BookingsFor", mock.Anything, session, "P1", day).Return(nil, assert.AnError)

	_, err := NewBookingsCache(client, provider, 0, nil).BookingsFor(context.Background(), session, "P1", day)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBookingsCache_Redis(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Del(ctx, Key("P1", day)).Err())

	provider := new(mockProvider)
	provider.On("BookingsFor", mock.Anything, session, "P1", day).Return(booked, nil).Once()
	metrics := observability.NewInMemoryMetrics()
	cache := NewBookingsCache(client, provider, time.Minute, nil).WithMetrics(metrics)

	first, err := cache.BookingsFor(ctx, session, "P1", day)
	require.NoError(t, err)
	second, err := cache.BookingsFor(ctx, session, "P1", day)
	require.NoError(t, err)

	assert.Equal(t, booked, first)
	assert.Equal(t, booked, second)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheHits))
	provider.AssertNumberOfCalls(t, "BookingsFor", 1)

	ttl, err := client.TTL(ctx, Key("P1", day)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	other := application.Session{ActorID: "recepcion"}
	provider.On("BookingsFor", mock.Anything, other, "P1", day).Return([]domain.Booking{}, nil).Once()
	forOther, err := cache.BookingsFor(ctx, other, "P1", day)
	require.NoError(t, err)
	assert.Empty(t, forOther, "scopes never share an entry")

	require.NoError(t, cache.Invalidate(ctx, "P1", day))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheInvalidations))
	exists, err := client.Exists(ctx, Key("P1", day)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	provider.On("BookingsFor", mock.Anything, session, "P1", day).Return([]domain.Booking{}, nil).Once()
	third, err := cache.BookingsFor(ctx, session, "P1", day)
	require.NoError(t, err)
	assert.Empty(t, third)
	assert.Equal(t, int64(3), metrics.GetCounter(observability.MetricCacheMisses))
}
