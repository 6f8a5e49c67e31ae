// Package eventbus delivers ticket notifications to presentation
// collaborators: a new ticket was created, a ticket changed status, a
// reply was added. The bus itself contains no synchronization logic and
// no knowledge of chat formatting or permissions; it just fans events
// out to registered handlers.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Bus dispatches events to registered handlers sequentially, in priority
// order. Handler errors are logged but never stop the chain.
type Bus struct {
	log *slog.Logger

	mu       sync.RWMutex
	handlers []Handler
}

// New creates a new event bus.
func New(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{log: log}
}

// Register adds a handler to the bus. Handlers are sorted by priority on
// each Dispatch call, so registration order does not matter.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Dispatch sends an event to all registered handlers that handle its
// type. There is no acknowledgment: the dispatch outcome never affects
// the operation that produced the event.
func (b *Bus) Dispatch(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("eventbus: nil event")
	}

	b.mu.RLock()
	matching := b.matchingHandlers(event.Type)
	b.mu.RUnlock()

	for _, h := range matching {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("eventbus: context cancelled: %w", err)
		}
		if err := h.Handle(ctx, event); err != nil {
			b.log.Warn("event handler failed", "handler", h.ID(), "event", event.Type, "err", err)
		}
	}
	return nil
}

// Handlers returns all registered handlers (for introspection).
func (b *Bus) Handlers() []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, len(b.handlers))
	copy(out, b.handlers)
	return out
}

// matchingHandlers returns handlers for the given event type, sorted by
// priority (lowest first). Call with at least a read lock held.
func (b *Bus) matchingHandlers(eventType EventType) []Handler {
	var matched []Handler
	for _, h := range b.handlers {
		for _, t := range h.Handles() {
			if t == eventType {
				matched = append(matched, h)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Priority() < matched[j].Priority()
	})
	return matched
}
