package events

import (
	"sync"
	"time"
)

// Event types published by the scheduling core.
const (
	TypeBookingCreated = "booking.created"
)

// Event is a lightweight in-process domain event.
type Event struct {
	Type       string
	BookingID  string
	ProviderID string
	StartAt    time.Time
	EndAt      time.Time
	CreatedAt  time.Time
}

// Handler reacts to an event. Handlers run synchronously on the
// publisher's goroutine; the subscriber decides its own concurrency.
type Handler func(event Event)

// Bus provides in-process pub/sub for booking events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}
