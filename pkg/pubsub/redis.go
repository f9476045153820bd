package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBus is a Bus backed by Redis pub/sub, for deployments with more
// than one server instance.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(ctx context.Context, url string) (*RedisBus, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}
	return &RedisBus{
		client: client,
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %v", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, topics...)
	// wait for the subscription to be confirmed so no messages published
	// after Subscribe returns are missed
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to topics: %v", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan Message, SubscriptionBufferSize),
	}
	go sub.forward()
	return sub, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan Message
}

func (s *redisSubscription) forward() {
	defer close(s.ch)
	for msg := range s.pubsub.Channel() {
		s.ch <- Message{
			Topic:   msg.Channel,
			Payload: []byte(msg.Payload),
		}
	}
}

func (s *redisSubscription) Messages() <-chan Message {
	return s.ch
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
