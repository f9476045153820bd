package subscriptions

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/messages"
	"github.com/gametag/assassin/pkg/notifications"
)

const (
	// SubscriberIDMaxRetries represents the maximum number of retries
	// when generating a unique subscriber ID
	SubscriberIDMaxRetries = 1024
)

// Subscriber represents one connected WebSocket client and the
// subscriptions it has registered.
type Subscriber struct {
	ID  uint32
	UID gametypes.PlayerID

	conn      *websocket.Conn
	writeLock sync.Mutex

	subsLock sync.RWMutex
	subs     []notifications.Subscription
}

// AddSubscription registers a subscription. Duplicates are ignored.
func (s *Subscriber) AddSubscription(sub notifications.Subscription) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	for _, existing := range s.subs {
		if existing == sub {
			return
		}
	}
	s.subs = append(s.subs, sub)
}

// RemoveSubscription removes a previously registered subscription.
func (s *Subscriber) RemoveSubscription(sub notifications.Subscription) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	for i, existing := range s.subs {
		if existing == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Subscriptions returns a snapshot of the registered subscriptions.
func (s *Subscriber) Subscriptions() []notifications.Subscription {
	s.subsLock.RLock()
	defer s.subsLock.RUnlock()
	subs := make([]notifications.Subscription, len(s.subs))
	copy(subs, s.subs)
	return subs
}

// Send writes a message frame to the subscriber's connection.
func (s *Subscriber) Send(msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}
	return nil
}

// SendError reports a rejected client message on the connection.
func (s *Subscriber) SendError(message string) error {
	payload, err := json.Marshal(&messages.ServerError{Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal server error: %v", err)
	}
	return s.Send(&messages.Message{
		Type:    messages.MessageTypeServerError,
		Payload: payload,
	})
}

// SubscriberManager manages connected subscribers
type SubscriberManager struct {
	subscribers     map[uint32]*Subscriber
	subscribersLock sync.RWMutex
	nextID          uint32
}

// NewSubscriberManager creates a new SubscriberManager
func NewSubscriberManager() *SubscriberManager {
	return &SubscriberManager{
		subscribers: make(map[uint32]*Subscriber),
		nextID:      1,
	}
}

// GetSubscribers returns a list of all connected subscribers
func (m *SubscriberManager) GetSubscribers() []*Subscriber {
	m.subscribersLock.RLock()
	defer m.subscribersLock.RUnlock()
	subscribers := make([]*Subscriber, 0, len(m.subscribers))
	for _, subscriber := range m.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	return subscribers
}

// AddSubscriber registers a new connection for the given identity and
// returns its Subscriber.
func (m *SubscriberManager) AddSubscriber(conn *websocket.Conn, uid gametypes.PlayerID) (*Subscriber, error) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	id, err := m.generateUniqueID(SubscriberIDMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate a unique ID: %v", err)
	}
	subscriber := &Subscriber{
		ID:   id,
		UID:  uid,
		conn: conn,
	}
	m.subscribers[id] = subscriber
	return subscriber, nil
}

// RemoveSubscriber removes a subscriber from the manager.
func (m *SubscriberManager) RemoveSubscriber(id uint32) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()
	delete(m.subscribers, id)
}

// generateUniqueID generates a unique subscriber ID, retrying on wraparound
// collisions. Callers must hold the write lock.
func (m *SubscriberManager) generateUniqueID(maxRetries int) (uint32, error) {
	for i := 0; i < maxRetries; i++ {
		id := m.nextID
		m.nextID++
		if m.nextID == 0 {
			m.nextID = 1
		}
		if _, exists := m.subscribers[id]; !exists {
			return id, nil
		}
	}
	return 0, fmt.Errorf("exhausted %d attempts", maxRetries)
}
