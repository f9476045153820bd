package subscriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gametag/assassin/pkg/notifications"
)

func TestSubscriberManager(t *testing.T) {
	manager := NewSubscriberManager()

	first, err := manager.AddSubscriber(nil, "alice")
	require.NoError(t, err)
	second, err := manager.AddSubscriber(nil, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, manager.GetSubscribers(), 2)

	manager.RemoveSubscriber(first.ID)
	subscribers := manager.GetSubscribers()
	require.Len(t, subscribers, 1)
	assert.Equal(t, second.ID, subscribers[0].ID)
}

func TestSubscriber_Subscriptions(t *testing.T) {
	manager := NewSubscriberManager()
	subscriber, err := manager.AddSubscriber(nil, "alice")
	require.NoError(t, err)

	gameSub := notifications.Subscription{GameID: "game-1"}
	playerSub := notifications.Subscription{PlayerID: "alice"}

	subscriber.AddSubscription(gameSub)
	subscriber.AddSubscription(playerSub)
	// duplicates are ignored
	subscriber.AddSubscription(gameSub)
	assert.Len(t, subscriber.Subscriptions(), 2)

	subscriber.RemoveSubscription(gameSub)
	subs := subscriber.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, playerSub, subs[0])

	// removing an unknown subscription is a no-op
	subscriber.RemoveSubscription(gameSub)
	assert.Len(t, subscriber.Subscriptions(), 1)
}
