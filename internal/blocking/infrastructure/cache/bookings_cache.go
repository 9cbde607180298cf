// Package cache keeps a short-lived Redis copy of a professional's bookings.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// DefaultTTL bounds how stale a cached booking list may be.
const DefaultTTL = 30 * time.Second

const keyPrefix = "salonops:bookings"

// BookingsCache is a read-through cache in front of a BookingsProvider.
// Redis failures never fail a read; the provider is asked instead.
type BookingsCache struct {
	client  redis.Cmdable
	next    application.BookingsProvider
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewBookingsCache wraps next. A ttl of zero uses DefaultTTL.
func NewBookingsCache(client redis.Cmdable, next application.BookingsProvider, ttl time.Duration, logger *slog.Logger) *BookingsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingsCache{
		client:  client,
		next:    next,
		ttl:     ttl,
		metrics: observability.NoopMetrics{},
		logger:  logger,
	}
}

// WithMetrics sets the metrics collector.
func (c *BookingsCache) WithMetrics(m observability.Metrics) *BookingsCache {
	if m != nil {
		c.metrics = m
	}
	return c
}

// Key returns the Redis hash holding one professional's bookings on one date.
// Each caller scope is a field of the hash, so one DEL drops every scope.
func Key(professionalID string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, professionalID, domain.FormatDate(date))
}

// Scope returns the hash field for a session. Callers that can see different
// bookings never share an entry. Tokens are hashed, never stored.
func Scope(session application.Session) string {
	switch {
	case session.ActorID != "":
		return "actor:" + session.ActorID
	case session.AccessToken != "":
		return "token:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(session.AccessToken)).String()
	default:
		return "anonymous"
	}
}

// BookingsFor returns the cached list when present, otherwise loads it from
// the wrapped provider and stores it.
func (c *BookingsCache) BookingsFor(ctx context.Context, session application.Session, professionalID string, date time.Time) ([]domain.Booking, error) {
	key := Key(professionalID, date)
	field := Scope(session)

	cached, err := c.client.HGet(ctx, key, field).Bytes()
	switch {
	case err == nil:
		var bookings []domain.Booking
		if jsonErr := json.Unmarshal(cached, &bookings); jsonErr == nil {
			c.metrics.Counter(observability.MetricCacheHits, 1)
			return bookings, nil
		}
		c.logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "bookings cache read failed", "key", key, "error", err)
	}
	c.metrics.Counter(observability.MetricCacheMisses, 1)

	bookings, err := c.next.BookingsFor(ctx, session, professionalID, date)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(bookings)
	if err == nil {
		// The hash expires ttl after its first entry, so no scope outlives it.
		_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, encoded)
			pipe.ExpireNX(ctx, key, c.ttl)
			return nil
		})
	}
	if err != nil {
		c.logger.WarnContext(ctx, "bookings cache write failed", "key", key, "error", err)
	}
	return bookings, nil
}

// Invalidate drops the cached lists of every scope for one professional and
// date.
func (c *BookingsCache) Invalidate(ctx context.Context, professionalID string, date time.Time) error {
	if err := c.client.Del(ctx, Key(professionalID, date)).Err(); err != nil {
		return err
	}
	c.metrics.Counter(observability.MetricCacheInvalidations, 1)
	return nil
}

// Ping checks the Redis connection.
func (c *BookingsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
