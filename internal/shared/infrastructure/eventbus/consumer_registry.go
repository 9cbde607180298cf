package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// binding subscribes a consumer to a topic pattern. Patterns follow AMQP
// topic exchange rules: "*" matches one dot-separated word and "#" matches
// zero or more, so "blocking.block.*" sees created, updated and deleted.
type binding struct {
	pattern  []string
	consumer EventConsumer
}

// ConsumerRegistry routes events to consumers the way the RabbitMQ topic
// exchange would, so local mode and broker mode deliver the same events.
type ConsumerRegistry struct {
	mu       sync.RWMutex
	bindings []binding
	logger   *slog.Logger
}

func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{logger: logger}
}

// Register binds consumer to each pattern it declares.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pattern := range consumer.EventTypes() {
		r.bindings = append(r.bindings, binding{pattern: strings.Split(pattern, "."), consumer: consumer})
		r.logger.Debug("consumer bound", "pattern", pattern)
	}
}

// GetConsumers returns, in registration order, every consumer with a
// pattern matching routingKey. A consumer bound twice is returned once.
func (r *ConsumerRegistry) GetConsumers(routingKey string) []EventConsumer {
	key := strings.Split(routingKey, ".")

	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []EventConsumer
	for _, b := range r.bindings {
		if matchTopic(b.pattern, key) && !slices.Contains(matched, b.consumer) {
			matched = append(matched, b.consumer)
		}
	}
	return matched
}

// Dispatch delivers event to every matching consumer. A failing consumer
// does not stop the others; their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.GetConsumers(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.DebugContext(ctx, "no consumers for event", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConsumerCount returns the number of distinct registered consumers.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var seen []EventConsumer
	for _, b := range r.bindings {
		if !slices.Contains(seen, b.consumer) {
			seen = append(seen, b.consumer)
		}
	}
	return len(seen)
}

// MatchTopic reports whether routingKey matches an AMQP topic pattern.
func MatchTopic(pattern, routingKey string) bool {
	return matchTopic(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchTopic(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(key); i++ {
			if matchTopic(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(key) > 0 && matchTopic(pattern[1:], key[1:])
	default:
		return len(key) > 0 && key[0] == pattern[0] && matchTopic(pattern[1:], key[1:])
	}
}
