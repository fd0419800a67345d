package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/dipeo/execengine/pkg/events"
)

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	bus := New(nil)
	ch1 := bus.Subscribe("a", ClassStateStore)
	ch2 := bus.Subscribe("b", ClassStateStore)

	bus.Publish(context.Background(), "exec-1", events.DomainEvent{Type: events.NodeStarted})

	select {
	case e := <-ch1:
		if e.Type != events.NodeStarted {
			t.Fatalf("unexpected event on ch1: %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ch1")
	}
	select {
	case e := <-ch2:
		if e.Type != events.NodeStarted {
			t.Fatalf("unexpected event on ch2: %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ch2")
	}
}

func TestPublish_StreamingDropsOnFullChannel(t *testing.T) {
	bus := New(nil)
	ch := bus.Subscribe("streamer", ClassStreaming)

	// Fill the channel without draining it.
	for i := 0; i < defaultCapacity+5; i++ {
		bus.Publish(context.Background(), "exec-1", events.DomainEvent{Type: events.NodeStarted})
	}

	if len(ch) != defaultCapacity {
		t.Fatalf("expected channel to be saturated at capacity %d, got %d", defaultCapacity, len(ch))
	}
}

func TestPublish_StateStoreBlocksUntilCancelled(t *testing.T) {
	bus := New(nil)
	bus.Subscribe("store", ClassStateStore)

	// Fill the channel.
	for i := 0; i < defaultCapacity; i++ {
		bus.Publish(context.Background(), "exec-1", events.DomainEvent{Type: events.NodeStarted})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		bus.Publish(ctx, "exec-1", events.DomainEvent{Type: events.NodeCompleted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Publish to return once ctx was cancelled")
	}
}

func TestClose_ClosesAllChannels(t *testing.T) {
	bus := New(nil)
	ch := bus.Subscribe("a", ClassStateStore)
	bus.Close()

	_, ok := <-ch
	if ok {
		t.Fatalf("expected channel to be closed")
	}
}
