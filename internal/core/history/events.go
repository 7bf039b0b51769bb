package history

import "sync"

// EventKind identifies the type of a history change notification.
type EventKind string

const (
	// EventEntryAdded fires after a new entry has been committed.
	EventEntryAdded EventKind = "entry_added"
	// EventEntryChanged fires after an entry's source label changed.
	EventEntryChanged EventKind = "entry_changed"
	// EventEntryRemoved fires after an entry and its snapshot were deleted.
	EventEntryRemoved EventKind = "entry_removed"
	// EventRemovedAll fires once after the whole store was cleared.
	EventRemovedAll EventKind = "removed_all"
)

// Event is a history change notification. Entry is nil for EventRemovedAll.
type Event struct {
	Kind  EventKind
	Entry *Entry
}

// Bus broadcasts history events to all subscribers.
//
// Publish never blocks: a subscriber that falls behind its buffer misses
// events rather than stalling the store.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

const subscriberBuffer = 64

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber. The returned cancel function
// removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
