// Package eventbus carries block lifecycle events. Envelopes are published
// under routing keys such as "blocking.block.created" to RabbitMQ, to the
// in-process bus, or to the outbox that later forwards them to either.
package eventbus

import "context"

// Publisher delivers an encoded event envelope under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
