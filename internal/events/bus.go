// Package events provides the in-process domain event bus and the
// transactional outbox dispatcher that feeds it.
package events

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/skatamatic/blulok-cloud-sub010/internal/events/domain"
)

// Handler consumes one tenant event. Handlers run concurrently; two events
// for different (tenant, unit) pairs never serialize against each other.
// A returned error tells the dispatcher to redeliver the event.
type Handler func(ctx context.Context, event *domain.TenantEvent) error

// Bus is an in-process publish/subscribe fan-out for tenancy events.
// Subscriptions happen once at startup; publishing may happen from any
// goroutine afterwards.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// PublishSync delivers the event to every subscribed handler concurrently and
// waits for all of them. Returns the first handler error, so the outbox
// dispatcher can count the delivery as failed and retry it.
func (b *Bus) PublishSync(ctx context.Context, eventType string, event *domain.TenantEvent) error {
	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Warn("event with no subscribers", slog.String("event_type", eventType))
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, handler := range handlers {
		group.Go(func() error {
			return handler(groupCtx, event)
		})
	}

	return group.Wait()
}
