// Package events is a small in-process publish/subscribe hub. It keeps UI
// observers of the same runtime in sync; it does not cross process boundaries.
package events

import (
	"sort"
	"sync"
)

type Topic string

const (
	// CartChanged carries the new []domain.CartLine.
	CartChanged Topic = "cart.changed"
	// CartInvalidated asks the cart store to refetch authoritative state.
	CartInvalidated Topic = "cart.invalidated"
	// SessionChanged carries the new *domain.Identity (nil for guest).
	SessionChanged Topic = "session.changed"
	// SessionExpired fires once per detected credential expiry.
	SessionExpired Topic = "session.expired"
)

type Event struct {
	Topic   Topic
	Payload any
}

type Handler func(Event)

type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Topic]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Topic]map[int]Handler)}
}

// Subscribe registers handler for topic and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	b.handlers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}

// Publish calls every handler of the topic synchronously, in subscription order.
// Handlers may subscribe or unsubscribe without deadlocking.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers[topic]))
	for id := range b.handlers[topic] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[topic][id])
	}
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload}
	for _, h := range handlers {
		h(event)
	}
}
