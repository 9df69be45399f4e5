package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"gitlab.com/ucmsv2/emailverify/internal/domain/event"
)

type EventHandler func(ctx context.Context, e event.Event) error

// EventBus delivers published events to subscribers synchronously. It stands
// in for the SQL outbox when the service runs without Postgres.
type EventBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) Subscribe(h EventHandler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *EventBus) Publish(ctx context.Context, events ...event.Event) error {
	b.mu.RLock()
	handlers := slices.Clone(b.handlers)
	b.mu.RUnlock()

	var errs []error
	for _, e := range events {
		for _, h := range handlers {
			if err := h(ctx, e); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
