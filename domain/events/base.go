// Package events defines the five change-stream event shapes the driver
// emits (spec §6): NodeUpserted, NodeRemoved, EdgeUpserted, EdgeRemoved,
// NetworkInitialized. A consumer applies them to its own projection and
// receives a lagging-consistent view.
package events

import (
	"time"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// DomainEvent is the base interface every change-stream event satisfies.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides the common fields.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time  { return e.Timestamp }

// NodeUpserted is raised whenever insert_node creates or merges a node.
type NodeUpserted struct {
	BaseEvent
	Node *entities.Node `json:"node"`
}

func NewNodeUpserted(n *entities.Node, ts time.Time) NodeUpserted {
	return NodeUpserted{
		BaseEvent: BaseEvent{AggregateID: n.Bid.String(), EventType: "node.upserted", Timestamp: ts},
		Node:      n,
	}
}

// NodeRemoved is raised when remove_node deletes a node, or when
// reconciliation (terminate_stack) finds a node from the prior pass
// missing from the current one.
type NodeRemoved struct {
	BaseEvent
	Bid valueobjects.Bid `json:"bid"`
}

func NewNodeRemoved(bid valueobjects.Bid, ts time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent: BaseEvent{AggregateID: bid.String(), EventType: "node.removed", Timestamp: ts},
		Bid:       bid,
	}
}

// EdgeUpserted is raised whenever upsert_edge inserts or replaces an
// edge's payload.
type EdgeUpserted struct {
	BaseEvent
	Edge *entities.Edge `json:"edge"`
}

func NewEdgeUpserted(e *entities.Edge, ts time.Time) EdgeUpserted {
	return EdgeUpserted{
		BaseEvent: BaseEvent{AggregateID: e.Source.String(), EventType: "edge.upserted", Timestamp: ts},
		Edge:      e,
	}
}

// EdgeRemoved is raised when an edge is removed, either directly or as a
// cascade of remove_node.
type EdgeRemoved struct {
	BaseEvent
	Key entities.EdgeKey `json:"key"`
}

func NewEdgeRemoved(key entities.EdgeKey, ts time.Time) EdgeRemoved {
	return EdgeRemoved{
		BaseEvent: BaseEvent{AggregateID: key.Source.String(), EventType: "edge.removed", Timestamp: ts},
		Key:       key,
	}
}

// NetworkInitialized is raised the first time a network root is
// observed and registered in the identity index.
type NetworkInitialized struct {
	BaseEvent
	Network *entities.Node `json:"network"`
}

func NewNetworkInitialized(n *entities.Node, ts time.Time) NetworkInitialized {
	return NetworkInitialized{
		BaseEvent: BaseEvent{AggregateID: n.Bid.String(), EventType: "network.initialized", Timestamp: ts},
		Network:   n,
	}
}
