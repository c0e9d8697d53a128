package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventLoopDataUpdated    EventKind = "loopDataUpdated"
	EventLoopCycleCompleted EventKind = "loopCycleCompleted"
)

type ChangeKind string

const (
	ChangeInsulin     ChangeKind = "insulin"
	ChangeCarbs       ChangeKind = "carbs"
	ChangeGlucose     ChangeKind = "glucose"
	ChangePreferences ChangeKind = "preferences"
	ChangeForecast    ChangeKind = "forecast"
)

type Event struct {
	Kind       EventKind
	Change     ChangeKind
	At         time.Time
	DecisionID uuid.UUID
	// Issues lists the error kinds of the cycle's decision, if any.
	Issues []string
}

const subscriberBuffer = 64

// EventBus fans loop events out to subscribers. A subscriber whose buffer is
// full misses the event instead of stalling the loop.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[chan Event]struct{})}
}

// Subscribe returns a channel of events. Call Unsubscribe when done.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
