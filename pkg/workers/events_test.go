package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/notifications"
	"github.com/gametag/assassin/pkg/pubsub"
	"github.com/gametag/assassin/pkg/queue"
)

func TestEventRouterWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := pubsub.NewInMemoryBus()
	defer bus.Close()
	sub, err := bus.Subscribe(ctx, notifications.Topics()...)
	require.NoError(t, err)

	eventQueue := queue.NewInMemoryQueue(10)
	worker := NewEventRouterWorker(NewEventRouterWorkerOptions{
		EventQueue: eventQueue,
		Router:     notifications.NewRouter(bus),
		Interval:   5 * time.Millisecond,
	})
	go worker.Start(ctx)

	require.NoError(t, eventQueue.Enqueue(gametypes.Notification{
		GameID:  "game-1",
		Roster:  []gametypes.PlayerID{"alice", "bob"},
		Message: "Office Showdown has started.",
	}))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, notifications.TopicNotifications, msg.Topic)
		env := notifications.Envelope{}
		require.NoError(t, json.Unmarshal(msg.Payload, &env))
		assert.Equal(t, "Office Showdown has started.", env.Message)
	case <-time.After(time.Second):
		t.Fatal("event never reached the bus")
	}

	assert.Equal(t, 0, eventQueue.Size())
}

func TestEventRouterWorker_FlushesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	bus := pubsub.NewInMemoryBus()
	defer bus.Close()
	sub, err := bus.Subscribe(context.Background(), notifications.Topics()...)
	require.NoError(t, err)

	eventQueue := queue.NewInMemoryQueue(10)
	worker := NewEventRouterWorker(NewEventRouterWorkerOptions{
		EventQueue: eventQueue,
		Router:     notifications.NewRouter(bus),
		Interval:   time.Hour,
	})

	require.NoError(t, eventQueue.Enqueue(gametypes.Notification{
		GameID:  "game-1",
		Roster:  []gametypes.PlayerID{"alice"},
		Message: "goodbye",
	}))

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	cancel()
	<-done

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, notifications.TopicNotifications, msg.Topic)
	case <-time.After(time.Second):
		t.Fatal("pending event was not flushed on shutdown")
	}
}
