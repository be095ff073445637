package workflow

import (
	"context"
	"sync"

	"github.com/insurdocs/pipeline/internal/models"
)

// EventBus fans out WorkflowEvents in-process to subscribers; nothing in
// internal/server subscribes to it. No external message bus is introduced:
// the event *bus* named in spec.md §4.1 is explicitly out of scope for
// this module (spec.md §1), so this stays a process-local broadcast.
type EventBus struct {
	mu   sync.Mutex
	subs map[chan models.WorkflowEvent]struct{}
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan models.WorkflowEvent]struct{})}
}

// Subscribe returns a channel that receives every event published after
// this call, until Unsubscribe is called with the same channel.
func (b *EventBus) Subscribe() chan models.WorkflowEvent {
	ch := make(chan models.WorkflowEvent, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (b *EventBus) Unsubscribe(ch chan models.WorkflowEvent) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *EventBus) publish(evt models.WorkflowEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default: // a slow subscriber misses events rather than stalling the workflow
		}
	}
}

// PublishEvent is the activity through which workflow code can publish an
// event (workflow.ExecuteActivity can't touch a.events directly since
// activities run in a separate goroutine pool, never inline in the
// deterministic workflow goroutine). It is registered on the worker, but no
// workflow in this package calls it, so no events are published.
func (a *ActivityRegistry) PublishEvent(_ context.Context, evt models.WorkflowEvent) error {
	if a.events != nil {
		a.events.publish(evt)
	}
	return nil
}
