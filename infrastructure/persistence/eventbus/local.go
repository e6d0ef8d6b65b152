// Package eventbus implements ports.EventBus: an in-process, synchronous
// fan-out bus used to keep local projections (the global cache, an HTTP
// snapshot server) in sync with the five change-stream event shapes
// (spec §6), plus an EventBridge-backed adapter for off-process fan-out.
package eventbus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"beliefgraph/application/ports"
	"beliefgraph/domain/events"
)

// Local is an in-process EventBus: handlers registered for an event type
// run synchronously, in registration order, on the calling goroutine.
// Spec §5 requires events for one file to be applied in emission order,
// which a synchronous, unbuffered dispatch trivially guarantees.
type Local struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	log      *zap.Logger
}

// NewLocal constructs an empty Local bus.
func NewLocal(log *zap.Logger) *Local {
	return &Local{handlers: make(map[string][]ports.EventHandler), log: log}
}

func (b *Local) Subscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

func (b *Local) Publish(ctx context.Context, event events.DomainEvent) error {
	b.mu.RLock()
	handlers := append([]ports.EventHandler(nil), b.handlers[event.GetEventType()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			if b.log != nil {
				b.log.Error("event handler failed", zap.String("event_type", event.GetEventType()), zap.Error(err))
			}
			return err
		}
	}
	return nil
}

func (b *Local) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.EventBus = (*Local)(nil)
