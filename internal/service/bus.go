package service

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
)

// Event resources.
const (
	ResourceDataLog = "datalog"
	ResourceDrawing = "drawing"
)

// Event is a change the UI should refresh for.
type Event struct {
	Resource string       // ResourceDataLog or ResourceDrawing
	Action   string       // "added", "removed", "cleared", "draft"
	IDs      []string     // affected data log entries
	Count    int          // entries left in the data log
	Draft    orb.Geometry // in-progress drawing, nil when cleared
}

// EventBus is a simple fan-out pub/sub for UI refresh events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers without blocking. A subscriber
// whose buffer is full misses the event.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// LogChanges returns a datalog change hook publishing on b.
func LogChanges(b *EventBus) func(datalog.Change) {
	return func(c datalog.Change) {
		b.Publish(Event{Resource: ResourceDataLog, Action: c.Action, IDs: c.IDs, Count: c.Count})
	}
}

// BusSurface is a drawing surface that publishes the draft geometry as
// drawing events, so the map client can render it.
type BusSurface struct {
	Bus *EventBus
}

func (s BusSurface) ShowDraft(g orb.Geometry) {
	s.Bus.Publish(Event{Resource: ResourceDrawing, Action: "draft", Draft: g})
}

func (s BusSurface) ClearDraft() {
	s.Bus.Publish(Event{Resource: ResourceDrawing, Action: "draft"})
}
