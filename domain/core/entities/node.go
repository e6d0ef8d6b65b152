// Package entities holds the Node and Edge records that make up the
// compiled graph (spec §3.1), plus the reserved system networks every
// real network points at.
package entities

import (
	"beliefgraph/domain/core/valueobjects"
)

// Kind is the set of infrastructure flags a node carries. A node may
// combine flags (e.g. Network|Document for a network whose root file is
// itself a parsed document).
type Kind uint8

const (
	KindNetwork  Kind = 1 << iota // marks a repository or system root
	KindDocument                  // marks a whole source file
	KindSection                   // marks a structural subpart
	KindExternal                  // a lazily-materialized http(s) sink
	KindAsset                     // a lazily-materialized non-document file sink
	KindAPI                       // the API version sentinel
	KindAnchored                  // the node's anchor id/title came from a literal {#id} rather than a synthesized one
)

// Has reports whether k includes flag f.
func (k Kind) Has(f Kind) bool { return k&f != 0 }

// Node represents a document, a subsection of a document, a network
// root, or a reference target (spec §3.1).
type Node struct {
	Bid     valueobjects.Bid
	Kind    Kind
	Schema  string         // opaque domain classification, never interpreted by the core
	Title   string
	ID      string         // optional user-defined semantic id, unique within HomeNet
	Payload map[string]any // opaque structured data

	// HomeNet is the nearest enclosing network root on disk; every node
	// is owned by exactly one network (spec §3.3).
	HomeNet valueobjects.Bid

	// Path is the network-relative file path this node's Document lives
	// at. Only set on Document (and Network) kind nodes; sections are
	// addressed via their enclosing document's Path plus an anchor.
	Path string
}

// NewNode constructs a Node with a freshly generated Bid scoped to
// homeNet. Callers that already have an authored Bid (from frontmatter)
// should set Bid directly after validating it (see validators package).
func NewNode(homeNet valueobjects.Bid, kind Kind, title string) (*Node, error) {
	bid, err := valueobjects.NewBid(homeNet)
	if err != nil {
		return nil, err
	}
	return &Node{
		Bid:     bid,
		Kind:    kind,
		Title:   title,
		HomeNet: homeNet,
		Payload: make(map[string]any),
	}, nil
}

// Bref is a convenience accessor for the node's compact reference.
func (n *Node) Bref() valueobjects.Bref { return n.Bid.Bref() }

// MergePayload applies last-write-wins merging of incoming fields onto
// the node's existing payload (used by the Graph Store's idempotent
// insert_node upsert semantics, spec §4.2).
func (n *Node) MergePayload(incoming map[string]any) {
	if n.Payload == nil {
		n.Payload = make(map[string]any)
	}
	for k, v := range incoming {
		n.Payload[k] = v
	}
}

// Clone returns a shallow copy suitable for snapshotting; Payload is
// copied one level deep.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Payload = make(map[string]any, len(n.Payload))
	for k, v := range n.Payload {
		cp.Payload[k] = v
	}
	return &cp
}
