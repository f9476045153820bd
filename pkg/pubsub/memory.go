package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/gametag/assassin/pkg/log"
)

const (
	// SubscriptionBufferSize is the buffer size of each subscription's
	// message channel
	SubscriptionBufferSize = 256
)

// InMemoryBus is a process-local Bus for single-instance deployments
// and tests.
type InMemoryBus struct {
	lock   sync.RWMutex
	subs   map[*memorySubscription]struct{}
	closed bool
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		subs: make(map[*memorySubscription]struct{}),
	}
}

func (b *InMemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if b.closed {
		return fmt.Errorf("bus is closed")
	}

	msg := Message{Topic: topic, Payload: payload}
	for sub := range b.subs {
		if !sub.topics[topic] {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// a slow subscriber drops messages rather than stalling
			// publishers; subscribers resync from current state
			log.Warn("Dropping message on topic %s for a slow subscriber", topic)
		}
	}
	return nil
}

func (b *InMemoryBus) Subscribe(ctx context.Context, topics ...string) (Subscription, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	topicSet := make(map[string]bool, len(topics))
	for _, topic := range topics {
		topicSet[topic] = true
	}
	sub := &memorySubscription{
		bus:    b,
		topics: topicSet,
		ch:     make(chan Message, SubscriptionBufferSize),
	}
	b.subs[sub] = struct{}{}
	return sub, nil
}

func (b *InMemoryBus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
		delete(b.subs, sub)
	}
	return nil
}

type memorySubscription struct {
	bus    *InMemoryBus
	topics map[string]bool
	ch     chan Message
	once   sync.Once
}

func (s *memorySubscription) Messages() <-chan Message {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.lock.Lock()
		defer s.bus.lock.Unlock()
		if _, ok := s.bus.subs[s]; ok {
			delete(s.bus.subs, s)
			close(s.ch)
		}
	})
	return nil
}
