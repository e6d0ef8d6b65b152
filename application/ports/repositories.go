// Package ports declares the boundary interfaces the compiler depends on
// but does not implement itself: the persistent global cache, the event
// bus domain events are published on, and the exclusive write-back
// lock guarding rewritten source files. Concrete adapters live under
// infrastructure/.
package ports

import (
	"context"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/domain/events"
)

// GlobalCache is the persistent identity cache (spec §6): an opaque
// key-value store keyed by Bid, which the driver treats as the
// authoritative record of previously-known state (session_bb is
// populated from it lazily).
type GlobalCache interface {
	GetNode(ctx context.Context, bid valueobjects.Bid) (*entities.Node, bool, error)
	PutNode(ctx context.Context, node *entities.Node) error
	DeleteNode(ctx context.Context, bid valueobjects.Bid) error

	GetEdge(ctx context.Context, key entities.EdgeKey) (*entities.Edge, bool, error)
	PutEdge(ctx context.Context, edge *entities.Edge) error
	DeleteEdge(ctx context.Context, key entities.EdgeKey) error

	// NodeByPath returns the previously-cached node for a
	// given (network, path) pair, used to seed session_bb for a file
	// the driver has not yet touched this session.
	NodeByPath(ctx context.Context, net valueobjects.Bid, path string) (*entities.Node, bool, error)
}

// EventPublisher sends change-stream events (the five shapes of spec
// §6) to whatever is listening downstream.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, evts []events.DomainEvent) error
}

// EventBus extends EventPublisher with the in-process subscribe/dispatch
// side, used by the local projection that keeps the global cache in
// sync with emitted events.
type EventBus interface {
	EventPublisher
	Subscribe(eventType string, handler EventHandler) error
}

// EventHandler processes one event type.
type EventHandler interface {
	Handle(ctx context.Context, event events.DomainEvent) error
}

// RewriteLock serializes write-back for one file path, so a concurrent
// reparse of the same file (triggered by both a watcher event and a
// sink-dependency requeue landing in the same pass) cannot interleave
// writes (spec §5: "write-back holds an exclusive write at rewrite time
// only").
type RewriteLock interface {
	Lock(ctx context.Context, path string) (unlock func(), err error)
}
