package events

import (
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/logger"
)

// Event is one named state-change notification with a small payload.
type Event struct {
	Topic  string
	Source string
	Data   map[string]any
}

// Handler processes an event of a specific topic. Handlers should avoid
// panicking; failures are surfaced via returned errors so the emitter can log
// diagnostics and continue delivering to remaining subscribers.
type Handler func(Event) error

// Subscription represents a registered handler. Callers invoke Unsubscribe to
// stop receiving events.
type Subscription interface {
	Unsubscribe()
}

// Emitter distributes controller events to interested subscribers. Dispatch
// is synchronous and at-most-once per emission; delivery order matches
// emission order.
type Emitter struct {
	mu     sync.RWMutex
	subs   map[string][]subscriptionEntry
	nextID int
	logger *logger.Logger
}

// NewEmitter creates an event emitter. The logger may be nil.
func NewEmitter(log *logger.Logger) *Emitter {
	return &Emitter{
		subs:   make(map[string][]subscriptionEntry),
		logger: log,
	}
}

// Emit delivers the event to every subscriber of its topic.
func (e *Emitter) Emit(topic, source string, data map[string]any) {
	if e == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	e.mu.RLock()
	handlers := append([]subscriptionEntry(nil), e.subs[topic]...)
	e.mu.RUnlock()

	event := Event{Topic: topic, Source: source, Data: data}
	for _, entry := range handlers {
		if entry.handler == nil {
			continue
		}
		if err := entry.handler(event); err != nil && e.logger != nil {
			e.logger.WithFields(map[string]any{"topic": topic}).Error(err, "event handler failed")
		}
	}
}

// Subscribe registers a handler for the provided topic.
func (e *Emitter) Subscribe(topic string, handler Handler) Subscription {
	if e == nil || handler == nil {
		return noopSubscription{}
	}
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subs[topic] = append(e.subs[topic], subscriptionEntry{id: id, handler: handler})
	e.mu.Unlock()

	return subscription{
		cancel: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			handlers := e.subs[topic]
			for i, entry := range handlers {
				if entry.id == id {
					e.subs[topic] = append(handlers[:i], handlers[i+1:]...)
					break
				}
			}
		},
	}
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	cancel func()
}

func (s subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

type subscriptionEntry struct {
	id      int
	handler Handler
}
