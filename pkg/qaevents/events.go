// Package qaevents provides publish/subscribe for lifecycle events
// emitted around the QA engine — form loads, plan/render calls, store
// applications, and generated-bundle notifications. It carries no
// domain logic of its own; qaengine publishes into it through the
// narrow EventPublisher interface it defines, so it does not depend on
// this package directly.
package qaevents

import (
	"sync"
	"time"
)

// EventType identifies the kind of event on the bus.
type EventType string

const (
	EventFormLoaded      EventType = "qa.form.loaded"
	EventPlanNext        EventType = "qa.plan.next"
	EventPlanSubmitPatch EventType = "qa.plan.submit_patch"
	EventPlanSubmitAll   EventType = "qa.plan.submit_all"
	EventRender          EventType = "qa.render"
	EventStoreApplied    EventType = "qa.store.applied"
	EventWizardGenerated EventType = "qa.wizard.generated"
	EventCheckpointSave  EventType = "qa.checkpoint.save"
	EventCheckpointLoad  EventType = "qa.checkpoint.restore"
)

// Event represents a single occurrence on the bus.
type Event struct {
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	FormID    string        `json:"form_id,omitempty"`
	Data      any           `json:"data,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NewEvent creates an Event stamped with the current time.
func NewEvent(typ EventType, formID string, data any, duration time.Duration) Event {
	return Event{Type: typ, Timestamp: time.Now(), FormID: formID, Data: data, Duration: duration}
}

// Bus provides publish/subscribe access to the event stream, plus a
// bounded replay buffer for late subscribers (the inspector SSE server
// backfills its stream from History on connect).
type Bus interface {
	Publish(event Event)
	Subscribe(filter ...EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
	History(since time.Time) []Event
}

type subscriber struct {
	ch     chan Event
	filter map[EventType]bool // empty means all events
}

// MemoryBus is an in-memory Bus. Zero value is not usable; construct
// with NewMemoryBus.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	history     []Event
	maxHistory  int
}

// NewMemoryBus creates a MemoryBus retaining up to maxHistory events
// for replay. maxHistory <= 0 means unbounded.
func NewMemoryBus(maxHistory int) *MemoryBus {
	return &MemoryBus{history: make([]Event, 0, 256), maxHistory: maxHistory}
}

func (b *MemoryBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.history = append(b.history, event)
	if b.maxHistory > 0 && len(b.history) > b.maxHistory {
		b.history = b.history[len(b.history)-b.maxHistory:]
	}
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, sub := range subs {
		if len(sub.filter) > 0 && !sub.filter[event.Type] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Drop event if the subscriber is slow; never block the publisher.
		}
	}
}

func (b *MemoryBus) Subscribe(filter ...EventType) <-chan Event {
	ch := make(chan Event, 64)
	sub := subscriber{ch: ch}
	if len(filter) > 0 {
		sub.filter = make(map[EventType]bool, len(filter))
		for _, f := range filter {
			sub.filter[f] = true
		}
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return ch
}

func (b *MemoryBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.ch == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

func (b *MemoryBus) History(since time.Time) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, e := range b.history {
		if !e.Timestamp.Before(since) {
			result = append(result, e)
		}
	}
	return result
}
