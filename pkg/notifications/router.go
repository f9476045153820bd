// Package notifications translates domain events into bus messages and
// decides which subscribers may receive each one.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/pubsub"
)

// Bus topics
const (
	TopicGameUpdates   = "games.updates"
	TopicNotifications = "games.notifications"
)

// Topics returns every topic the router publishes to. Delivery workers
// subscribe to all of them and filter per recipient with CanReceive.
func Topics() []string {
	return []string{TopicGameUpdates, TopicNotifications}
}

// Envelope is the wire form of a routed event. It carries the roster at
// commit time so recipient filtering does not depend on any later state.
type Envelope struct {
	Kind    string               `json:"kind"`
	GameID  gametypes.GameID     `json:"gameID"`
	Roster  []gametypes.PlayerID `json:"roster"`
	Message string               `json:"message,omitempty"`
	Game    *gametypes.GameState `json:"game,omitempty"`
}

// Subscription describes what one subscriber is watching: a specific
// game, their own player identity, or both. Zero values mean unset.
type Subscription struct {
	GameID   gametypes.GameID
	PlayerID gametypes.PlayerID
}

// CanReceive is the per-delivery recipient predicate:
//   - game updates go to subscribers watching the game's id and to
//     subscribers identified as a current roster member;
//   - notifications go to roster members only.
func CanReceive(sub Subscription, env Envelope) bool {
	onRoster := false
	if sub.PlayerID != "" {
		for _, p := range env.Roster {
			if p == sub.PlayerID {
				onRoster = true
				break
			}
		}
	}

	switch env.Kind {
	case gametypes.EventTypeGameUpdated:
		return (sub.GameID != "" && sub.GameID == env.GameID) || onRoster
	case gametypes.EventTypeNotification:
		return onRoster
	default:
		return false
	}
}

// Router publishes domain events to the bus, one message per event, in
// the order given.
type Router struct {
	bus pubsub.Bus
}

func NewRouter(bus pubsub.Bus) *Router {
	return &Router{
		bus: bus,
	}
}

func (r *Router) Route(ctx context.Context, events []gametypes.Event) error {
	for _, event := range events {
		topic, env, err := envelope(event)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal envelope: %v", err)
		}
		if err := r.bus.Publish(ctx, topic, payload); err != nil {
			return fmt.Errorf("failed to publish event: %v", err)
		}
	}
	return nil
}

func envelope(event gametypes.Event) (string, Envelope, error) {
	switch e := event.(type) {
	case gametypes.GameUpdated:
		return TopicGameUpdates, Envelope{
			Kind:   gametypes.EventTypeGameUpdated,
			GameID: e.Game.ID,
			Roster: e.Game.Roster,
			Game:   e.Game,
		}, nil
	case gametypes.Notification:
		return TopicNotifications, Envelope{
			Kind:    gametypes.EventTypeNotification,
			GameID:  e.GameID,
			Roster:  e.Roster,
			Message: e.Message,
		}, nil
	default:
		return "", Envelope{}, fmt.Errorf("unknown event type: %T", event)
	}
}
