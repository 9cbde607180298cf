package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	correlationIDCtxKey contextKey = iota
	requestIDCtxKey
	actorIDCtxKey
)

// Attribute keys shared by logs and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	ActorIDKey       = "actor_id"
	StatusKey        = "status"
)

func withString(ctx context.Context, key contextKey, v string, generate bool) context.Context {
	if v == "" && generate {
		v = uuid.NewString()
	}
	return context.WithValue(ctx, key, v)
}

func stringFrom(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WithCorrelationID tags ctx with the id that ties one CLI invocation to the
// events it publishes. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withString(ctx, correlationIDCtxKey, id, true)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, correlationIDCtxKey)
}

// WithRequestID sets the X-Request-ID sent to the Block API. An empty id gets
// a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDCtxKey, id, true)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, requestIDCtxKey)
}

// WithActorID records the administrator acting in this session.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return withString(ctx, actorIDCtxKey, actorID, false)
}

func ActorIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, actorIDCtxKey)
}
