package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/gametag/assassin/pkg/auth/providers"
)

func TestWSServer_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	server := NewWSServer(NewWSServerOptions{
		Port:         0,
		AuthProvider: providers.NewDevAuthProvider(),
		Manager:      NewSubscriberManager(),
	})

	done := make(chan struct{})
	go func() {
		server.Start(ctx)
		close(done)
	}()

	// let the listener come up before cancelling
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}
