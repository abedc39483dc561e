// Package events provides a small in-process event bus used by the
// catalog and image modules to announce state changes.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// EventType identifies the kind of event
type EventType string

const (
	// Catalog entity events
	EventMovieCreated  EventType = "movie.created"
	EventMovieUpdated  EventType = "movie.updated"
	EventActorCreated  EventType = "actor.created"
	EventActorUpdated  EventType = "actor.updated"
	EventGenreCreated  EventType = "genre.created"
	EventGenreUpdated  EventType = "genre.updated"
	EventEntityDeleted EventType = "entity.deleted"

	// Image asset events
	EventAssetSaved   EventType = "asset.saved"
	EventAssetRemoved EventType = "asset.removed"

	// Seed lifecycle events
	EventSeedCompleted EventType = "seed.completed"
)

// Event represents a single occurrence announced on the bus
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates an event with a fresh id and timestamp
func NewEvent(eventType EventType, source, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// Handler receives published events
type Handler func(Event)

// EventBus is the publishing interface handed to modules
type EventBus interface {
	// PublishAsync delivers the event to subscribers without blocking
	// the caller
	PublishAsync(event Event)
	// Subscribe registers a handler for the given event types; no types
	// means all events. The returned function removes the subscription.
	Subscribe(handler Handler, types ...EventType) (unsubscribe func())
}

type subscription struct {
	handler Handler
	types   map[EventType]bool // empty means all
}

// Bus is the default EventBus implementation
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	logger hclog.Logger
}

// NewBus creates an event bus
func NewBus(logger hclog.Logger) *Bus {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Bus{
		subs:   make(map[uint64]*subscription),
		logger: logger,
	}
}

// PublishAsync delivers the event to matching subscribers on a separate
// goroutine per publish
func (b *Bus) PublishAsync(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if len(sub.types) == 0 || sub.types[event.Type] {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	go func() {
		for _, handler := range handlers {
			b.dispatch(handler, event)
		}
	}()
}

// dispatch isolates one subscriber call: a panicking handler must not
// cost the remaining subscribers their delivery
func (b *Bus) dispatch(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "type", event.Type, "panic", r)
		}
	}()
	handler(event)
}

// Subscribe registers a handler for the given event types
func (b *Bus) Subscribe(handler Handler, types ...EventType) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	typeSet := make(map[EventType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	b.subs[id] = &subscription{handler: handler, types: typeSet}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
