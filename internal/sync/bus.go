package sync

import (
	"context"
	"sync"
)

// Handler consumes one event. Handlers must not return errors; sync
// failures are their own responsibility to log.
type Handler func(ctx context.Context, ev Event)

// Bus dispatches events to subscribers synchronously, in subscription
// order, on the publisher's goroutine. By the time Publish returns every
// handler has run, so a catalog write that triggers a reindex observes
// the index update before answering its client.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers ev to every handler before returning.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, ev)
	}
}
