package history

import (
	"testing"
	"time"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	entry := &Entry{ID: "a", Timestamp: 1}
	bus.Publish(Event{Kind: EventEntryAdded, Entry: entry})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Kind != EventEntryAdded {
				t.Errorf("subscriber %d: Kind = %q, want %q", i, e.Kind, EventEntryAdded)
			}
			if e.Entry.ID != "a" {
				t.Errorf("subscriber %d: Entry.ID = %q, want %q", i, e.Entry.ID, "a")
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event received", i)
		}
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := bus.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(Event{Kind: EventEntryRemoved})
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Overfill the subscriber buffer without anyone reading.
		for i := 0; i < subscriberBuffer*2; i++ {
			bus.Publish(Event{Kind: EventEntryAdded, Entry: &Entry{ID: "x"}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestBus_SubscribeAfterClose(t *testing.T) {
	bus := NewBus()
	bus.Close()

	ch, cancel := bus.Subscribe()
	defer cancel()

	if _, ok := <-ch; ok {
		t.Error("subscription after close should be closed immediately")
	}
}
