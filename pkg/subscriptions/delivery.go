package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gametag/assassin/pkg/log"
	"github.com/gametag/assassin/pkg/messages"
	"github.com/gametag/assassin/pkg/notifications"
	"github.com/gametag/assassin/pkg/pubsub"
)

// DeliveryWorker consumes routed events from the bus and fans them out
// to connected subscribers whose subscriptions match.
type DeliveryWorker struct {
	bus     pubsub.Bus
	manager *SubscriberManager
}

type NewDeliveryWorkerOptions struct {
	Bus     pubsub.Bus
	Manager *SubscriberManager
}

func NewDeliveryWorker(opts NewDeliveryWorkerOptions) *DeliveryWorker {
	return &DeliveryWorker{
		bus:     opts.Bus,
		manager: opts.Manager,
	}
}

// Start subscribes to the event topics and delivers until the context
// is cancelled or the bus closes.
func (w *DeliveryWorker) Start(ctx context.Context) error {
	sub, err := w.bus.Subscribe(ctx, notifications.Topics()...)
	if err != nil {
		return fmt.Errorf("failed to subscribe to event topics: %v", err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			w.deliver(msg)
		}
	}
}

// deliver fans one bus message out to every matching subscriber. A
// subscriber receives each event at most once regardless of how many of
// its subscriptions match.
func (w *DeliveryWorker) deliver(msg pubsub.Message) {
	env := notifications.Envelope{}
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		log.Error("Failed to unmarshal envelope from topic %s: %v", msg.Topic, err)
		return
	}

	for _, subscriber := range w.manager.GetSubscribers() {
		if !matches(subscriber, env) {
			continue
		}
		err := subscriber.Send(&messages.Message{
			Type:    messages.MessageTypeServerEvent,
			Payload: msg.Payload,
		})
		if err != nil {
			log.Error("Failed to deliver event to subscriber %d: %v", subscriber.ID, err)
		}
	}
}

func matches(subscriber *Subscriber, env notifications.Envelope) bool {
	for _, sub := range subscriber.Subscriptions() {
		if notifications.CanReceive(sub, env) {
			return true
		}
	}
	return false
}
