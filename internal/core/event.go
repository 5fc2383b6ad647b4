package core

import (
	"sync"
	"time"

	"github.com/sliink/hopmon/internal/model"
)

// Event represents a system event with metadata
type Event struct {
	Type      model.EventType
	SourceID  string
	Data      interface{}
	Timestamp time.Time
}

// NewEvent creates a new event
func NewEvent(eventType model.EventType, sourceID string, data interface{}) Event {
	return Event{
		Type:      eventType,
		SourceID:  sourceID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// EventCallback is a function that is called when an event occurs
type EventCallback func(Event)

// EventBus handles event publication and subscription
type EventBus struct {
	subscribers map[model.EventType]map[string]EventCallback
	mutex       sync.RWMutex
	BaseComponent
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers:   make(map[model.EventType]map[string]EventCallback),
		BaseComponent: NewBaseComponent("event_bus", "Event Bus"),
	}
}

// Initialize prepares the event bus for operation
func (b *EventBus) Initialize() bool {
	b.SetStatus(model.StatusInitialized)
	return true
}

// Start begins event bus operation
func (b *EventBus) Start() bool {
	b.SetStatus(model.StatusRunning)
	return true
}

// Stop halts event bus operation
func (b *EventBus) Stop() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.subscribers = make(map[model.EventType]map[string]EventCallback)

	b.SetStatus(model.StatusStopped)
	return true
}

// Subscribe registers a callback for a specific event type
func (b *EventBus) Subscribe(eventType model.EventType, listenerID string, callback EventCallback) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[string]EventCallback)
	}

	b.subscribers[eventType][listenerID] = callback
}

// SubscribeAll registers a callback for every listed event type
func (b *EventBus) SubscribeAll(eventTypes []model.EventType, listenerID string, callback EventCallback) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, listenerID, callback)
	}
}

// Unsubscribe removes a subscriber from a specific event type
func (b *EventBus) Unsubscribe(eventType model.EventType, listenerID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.subscribers[eventType] != nil {
		delete(b.subscribers[eventType], listenerID)
	}
}

// Publish broadcasts an event to all subscribers.
// Callbacks run synchronously on the publisher's goroutine.
func (b *EventBus) Publish(event Event) {
	if b.GetStatus() != model.StatusRunning {
		return
	}

	b.mutex.RLock()
	callbacks := make([]EventCallback, 0, len(b.subscribers[event.Type]))
	for _, callback := range b.subscribers[event.Type] {
		callbacks = append(callbacks, callback)
	}
	b.mutex.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}
