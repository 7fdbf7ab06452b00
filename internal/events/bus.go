package events

import (
	"sync"
	"time"
)

// Bus fans events out to registered handlers. Emit is synchronous and
// preserves per-caller ordering, which keeps the engine's single-call-stack
// transition model intact.
type Bus struct {
	mu       sync.Mutex
	handlers []Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit stamps the event time and delivers it to every handler in
// subscription order.
func (b *Bus) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}
