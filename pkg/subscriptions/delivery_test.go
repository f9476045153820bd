package subscriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/notifications"
)

func TestMatches(t *testing.T) {
	manager := NewSubscriberManager()
	subscriber, err := manager.AddSubscriber(nil, "bob")
	require.NoError(t, err)
	subscriber.AddSubscription(notifications.Subscription{GameID: "game-1"})
	subscriber.AddSubscription(notifications.Subscription{PlayerID: "bob"})

	update := notifications.Envelope{
		Kind:   gametypes.EventTypeGameUpdated,
		GameID: "game-1",
		Roster: []gametypes.PlayerID{"alice", "carol"},
	}
	assert.True(t, matches(subscriber, update), "game id subscription should match")

	otherGame := notifications.Envelope{
		Kind:   gametypes.EventTypeGameUpdated,
		GameID: "game-2",
		Roster: []gametypes.PlayerID{"alice", "bob"},
	}
	assert.True(t, matches(subscriber, otherGame), "roster membership should match")

	unrelated := notifications.Envelope{
		Kind:   gametypes.EventTypeGameUpdated,
		GameID: "game-3",
		Roster: []gametypes.PlayerID{"alice", "carol"},
	}
	assert.False(t, matches(subscriber, unrelated))

	notification := notifications.Envelope{
		Kind:   gametypes.EventTypeNotification,
		GameID: "game-1",
		Roster: []gametypes.PlayerID{"alice", "carol"},
	}
	assert.False(t, matches(subscriber, notification), "notifications require roster membership")
}
