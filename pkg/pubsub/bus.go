// Package pubsub defines the notification bus the server publishes
// domain events to. Fan-out to subscribers happens outside the core;
// the bus only moves topic-scoped payloads.
package pubsub

import "context"

// Message is a payload received from a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Bus is a topic-based publish/subscribe transport.
type Bus interface {
	// Publish sends payload to every current subscriber of topic.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe returns a subscription receiving messages for the given
	// topics until it is closed.
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
	Close() error
}

// Subscription is a live feed of messages for a set of topics.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}
