package app

import (
	"sync"

	"github.com/philipparndt/gobim/pkg/ids"
)

// Event is implemented by all viewer state-change notifications
type Event interface {
	EventType() string
}

// ModelLoadedEvent signals that a model finished loading
type ModelLoadedEvent struct {
	ModelID  string `json:"modelId"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Elements int    `json:"elements"`
}

func (e ModelLoadedEvent) EventType() string { return "model_loaded" }

// ModelUnloadedEvent signals that the model was disposed
type ModelUnloadedEvent struct {
	ModelID string `json:"modelId"`
}

func (e ModelUnloadedEvent) EventType() string { return "model_unloaded" }

// SelectionChangedEvent carries the new selection size
type SelectionChangedEvent struct {
	Count int `json:"count"`
}

func (e SelectionChangedEvent) EventType() string { return "selection_changed" }

// VisibilityChangedEvent signals that hidden-set reconciliation ran
type VisibilityChangedEvent struct {
	Hidden int `json:"hidden"`
}

func (e VisibilityChangedEvent) EventType() string { return "visibility_changed" }

// CutChangedEvent carries the clip engine's user-facing state
type CutChangedEvent struct {
	Enabled  bool    `json:"enabled"`
	Mode     string  `json:"mode"`
	Inverted bool    `json:"inverted"`
	Offset   float64 `json:"offset"`
}

func (e CutChangedEvent) EventType() string { return "cut_changed" }

// FilterChangedEvent signals a new active filter
type FilterChangedEvent struct {
	Matched  int `json:"matched"`
	Excluded int `json:"excluded"`
}

func (e FilterChangedEvent) EventType() string { return "filter_changed" }

// MeasurementChangedEvent signals measurement list changes
type MeasurementChangedEvent struct {
	Count int `json:"count"`
}

func (e MeasurementChangedEvent) EventType() string { return "measurement_changed" }

// ToolChangedEvent signals tool activation
type ToolChangedEvent struct {
	Tool string `json:"tool"`
}

func (e ToolChangedEvent) EventType() string { return "tool_changed" }

// NotificationEvent is a user-facing message
type NotificationEvent struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func (e NotificationEvent) EventType() string { return "notification" }

// subscriberBufferSize bounds each subscriber channel; a subscriber that
// stops draining loses events instead of stalling the publisher.
const subscriberBufferSize = 64

// Bus fans events out to subscribers
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]chan Event
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id and channel
func (b *Bus) Subscribe() (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := ids.New("subscriber")
	ch := make(chan Event, subscriberBufferSize)
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Count returns the number of active subscribers
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
