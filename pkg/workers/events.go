package workers

import (
	"context"
	"time"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/log"
	"github.com/gametag/assassin/pkg/notifications"
	"github.com/gametag/assassin/pkg/queue"
)

// EventRouterWorker drains the domain event queue and hands events to
// the notification router. Events are enqueued by API handlers after a
// successful commit, so a single worker draining in FIFO order preserves
// commit order per game.
type EventRouterWorker struct {
	eventQueue queue.Queue
	router     *notifications.Router
	interval   time.Duration
}

type NewEventRouterWorkerOptions struct {
	EventQueue queue.Queue
	Router     *notifications.Router
	Interval   time.Duration
}

func NewEventRouterWorker(opts NewEventRouterWorkerOptions) *EventRouterWorker {
	return &EventRouterWorker{
		eventQueue: opts.EventQueue,
		router:     opts.Router,
		interval:   opts.Interval,
	}
}

// Start runs the worker until ctx is cancelled, flushing once more on
// shutdown so already-committed events still go out.
func (w *EventRouterWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(context.Background())
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *EventRouterWorker) flush(ctx context.Context) {
	pending, err := w.eventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read pending events: %v", err)
		return
	}
	for _, item := range pending {
		event, ok := item.(gametypes.Event)
		if !ok {
			log.Error("Dropping unexpected queue item of type %T", item)
			continue
		}
		if err := w.router.Route(ctx, []gametypes.Event{event}); err != nil {
			log.Error("Failed to route %s event for game %s: %v", event.EventType(), event.EventGameID(), err)
		}
	}
}
