// Package store implements the Graph Store (spec §3.2, §4.2): the
// typed directed hypergraph keyed by Bid, with insert_node, remove_node,
// upsert_edge, context, diff, and validate, plus a lazily rebuilt
// identity index and a distinction between the full store and the
// lightweight snapshot handed to transport consumers.
package store

import (
	"fmt"
	"sort"
	"sync"

	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/index"
)

// Store is the aggregate root for one compiled graph spanning every
// network the driver has visited. It is safe for concurrent use: every
// method takes the store's read/write lock, so readers on other
// goroutines may query it while the driver mutates it.
type Store struct {
	mu    sync.RWMutex
	nodes map[valueobjects.Bid]*entities.Node
	edges map[entities.EdgeKey]*entities.Edge

	// bySource/bySink index edges for fast context() lookups, avoiding a
	// full edges scan per call.
	bySource map[valueobjects.Bid]map[entities.EdgeKey]struct{}
	bySink   map[valueobjects.Bid]map[entities.EdgeKey]struct{}

	ix *index.Index

	// dirty marks that a node or edge mutation happened since the last
	// ClearDirty. It is reported through IsDirty; no other store method
	// reads it.
	dirty bool
}

// New constructs an empty Store backed by idx (typically shared with the
// resolver so identity assignment and graph membership stay consistent).
func New(idx *index.Index) *Store {
	return &Store{
		nodes:    make(map[valueobjects.Bid]*entities.Node),
		edges:    make(map[entities.EdgeKey]*entities.Edge),
		bySource: make(map[valueobjects.Bid]map[entities.EdgeKey]struct{}),
		bySink:   make(map[valueobjects.Bid]map[entities.EdgeKey]struct{}),
		ix:       idx,
	}
}

// InsertNode idempotently upserts a node: if node.Bid is new, it is
// added outright; if it already exists, incoming's Payload is merged
// onto the existing node with last-write-wins semantics and the merged
// node is returned (spec §4.2). The caller owns emitting the resulting
// NodeUpserted event; InsertNode only mutates the store.
func (s *Store) InsertNode(node *entities.Node) *entities.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[node.Bid]
	if !ok {
		cp := node.Clone()
		s.nodes[node.Bid] = cp
		s.dirty = true
		return cp
	}
	existing.MergePayload(node.Payload)
	existing.Title = node.Title
	existing.Schema = node.Schema
	if node.ID != "" {
		existing.ID = node.ID
	}
	if node.Path != "" {
		existing.Path = node.Path
	}
	return existing
}

// RemoveNode deletes a node and cascades to every edge touching it,
// returning the removed edges so the caller can emit EdgeRemoved events
// alongside the NodeRemoved event (spec §4.2: remove_node "cascades
// edges").
func (s *Store) RemoveNode(bid valueobjects.Bid) []*entities.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[bid]; !ok {
		return nil
	}
	delete(s.nodes, bid)
	s.ix.Remove(bid)

	var removed []*entities.Edge
	for key := range s.bySource[bid] {
		if e := s.edges[key]; e != nil {
			removed = append(removed, e)
		}
		s.deleteEdgeLocked(key)
	}
	for key := range s.bySink[bid] {
		if e := s.edges[key]; e != nil {
			removed = append(removed, e)
		}
		s.deleteEdgeLocked(key)
	}
	s.dirty = true
	return removed
}

// UpsertEdge inserts edge, or replaces the payload of an existing edge
// sharing the same (source, sink, kind) key (spec §4.2). It refuses an
// edge that would create a cycle within its own EdgeKind's sub-graph
// (invariant I1): each edge kind's sub-graph must stay acyclic
// independently of the others.
func (s *Store) UpsertEdge(edge *entities.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edge.Key()
	if _, exists := s.edges[key]; !exists {
		if s.reachableLocked(edge.Sink, edge.Source, edge.Kind) {
			return fmt.Errorf("store: edge %s->%s (%s) would create a cycle", edge.Source, edge.Sink, edge.Kind)
		}
	}
	s.edges[key] = edge
	s.indexEdgeLocked(key)
	s.dirty = true
	return nil
}

func (s *Store) indexEdgeLocked(key entities.EdgeKey) {
	if s.bySource[key.Source] == nil {
		s.bySource[key.Source] = make(map[entities.EdgeKey]struct{})
	}
	s.bySource[key.Source][key] = struct{}{}
	if s.bySink[key.Sink] == nil {
		s.bySink[key.Sink] = make(map[entities.EdgeKey]struct{})
	}
	s.bySink[key.Sink][key] = struct{}{}
}

func (s *Store) deleteEdgeLocked(key entities.EdgeKey) {
	delete(s.edges, key)
	delete(s.bySource[key.Source], key)
	delete(s.bySink[key.Sink], key)
}

// reachableLocked reports whether to is reachable from from by following
// only edges of kind, used to reject edges that would close a cycle.
// Must be called with s.mu held.
func (s *Store) reachableLocked(from, to valueobjects.Bid, kind entities.EdgeKind) bool {
	if from == to {
		return true
	}
	visited := map[valueobjects.Bid]bool{from: true}
	stack := []valueobjects.Bid{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for key := range s.bySource[cur] {
			if key.Kind != kind {
				continue
			}
			if key.Sink == to {
				return true
			}
			if !visited[key.Sink] {
				visited[key.Sink] = true
				stack = append(stack, key.Sink)
			}
		}
	}
	return false
}

// Context is the per-kind sorted source/sink view of one node: for each
// EdgeKind, the edges where bid is the source ("children") and where
// bid is the sink ("parents"), each sorted by SortKey, then by the
// sink's Bid, then by the source's Bid, for determinism (invariant I4).
type Context struct {
	Children map[entities.EdgeKind][]*entities.Edge
	Parents  map[entities.EdgeKind][]*entities.Edge
}

// Context returns bid's neighborhood, grouped by edge kind and sorted.
func (s *Store) Context(bid valueobjects.Bid) Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := Context{
		Children: make(map[entities.EdgeKind][]*entities.Edge),
		Parents:  make(map[entities.EdgeKind][]*entities.Edge),
	}
	for key := range s.bySource[bid] {
		if e := s.edges[key]; e != nil {
			ctx.Children[key.Kind] = append(ctx.Children[key.Kind], e)
		}
	}
	for key := range s.bySink[bid] {
		if e := s.edges[key]; e != nil {
			ctx.Parents[key.Kind] = append(ctx.Parents[key.Kind], e)
		}
	}
	for _, list := range ctx.Children {
		sortEdges(list)
	}
	for _, list := range ctx.Parents {
		sortEdges(list)
	}
	return ctx
}

func sortEdges(edges []*entities.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		si, sj := edges[i].SortKey(), edges[j].SortKey()
		if si != sj {
			return si < sj
		}
		if edges[i].Sink != edges[j].Sink {
			return edges[i].Sink.String() < edges[j].Sink.String()
		}
		return edges[i].Source.String() < edges[j].Source.String()
	})
}

// IsDirty reports whether a node or edge mutation has happened since the
// last ClearDirty.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag after the caller has finished
// consuming a pass's mutations.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Node looks up a node by Bid.
func (s *Store) Node(bid valueobjects.Bid) (*entities.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[bid]
	return n, ok
}

// Edge looks up one edge by its (source, sink, kind) key.
func (s *Store) Edge(key entities.EdgeKey) (*entities.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[key]
	return e, ok
}

// DocumentPath returns the network-relative path of the document that
// owns bid: bid's own Path if it is a document (or network), or the
// nearest enclosing document's Path reached by walking Section edges
// upward (spec §3.1: "sections are addressed via their enclosing
// document's path plus an anchor").
func (s *Store) DocumentPath(bid valueobjects.Bid) (string, bool) {
	cur := bid
	for i := 0; i < 64; i++ {
		n, ok := s.Node(cur)
		if !ok {
			return "", false
		}
		if n.Path != "" {
			return n.Path, true
		}
		parents := s.Context(cur).Children[entities.EdgeSection]
		if len(parents) == 0 {
			return "", false
		}
		cur = parents[0].Sink
	}
	return "", false
}

// ReferrersInto returns every edge of kind that points into sink, used
// to find the files that cite a node whose owning document has just
// moved or been retitled (spec P8: "referring files get requeued").
func (s *Store) ReferrersInto(sink valueobjects.Bid, kind entities.EdgeKind) []*entities.Edge {
	ctx := s.Context(sink)
	edges := ctx.Parents[kind]
	out := make([]*entities.Edge, len(edges))
	copy(out, edges)
	return out
}

// Diff describes the set difference between two node/edge membership
// snapshots, used by the driver's reconciliation step (terminate_stack,
// spec §4.4) to turn "what a document used to contribute" vs. "what it
// contributes now" into NodeRemoved/EdgeRemoved events.
type Diff struct {
	RemovedNodes []valueobjects.Bid
	RemovedEdges []entities.EdgeKey
}

// DiffContributions compares the prior pass's node/edge Bids for one
// document against the current pass's, returning what must be retracted.
func DiffContributions(prevNodes, curNodes []valueobjects.Bid, prevEdges, curEdges []entities.EdgeKey) Diff {
	curNodeSet := make(map[valueobjects.Bid]struct{}, len(curNodes))
	for _, b := range curNodes {
		curNodeSet[b] = struct{}{}
	}
	curEdgeSet := make(map[entities.EdgeKey]struct{}, len(curEdges))
	for _, k := range curEdges {
		curEdgeSet[k] = struct{}{}
	}

	var d Diff
	for _, b := range prevNodes {
		if _, ok := curNodeSet[b]; !ok {
			d.RemovedNodes = append(d.RemovedNodes, b)
		}
	}
	for _, k := range prevEdges {
		if _, ok := curEdgeSet[k]; !ok {
			d.RemovedEdges = append(d.RemovedEdges, k)
		}
	}
	return d
}

// Validate checks the invariants the store cannot cheaply enforce
// incrementally: I1 (each edge kind's sub-graph acyclic — already
// enforced on insert, re-checked here defensively) and I2 (no edge may
// name a Bid that is not a node in the store — dangling edges).
func (s *Store) Validate() []diagnostics.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var diags []diagnostics.Diagnostic
	for key := range s.edges {
		if _, ok := s.nodes[key.Source]; !ok {
			diags = append(diags, diagnostics.InvariantViolation{
				File:   "",
				Kind:   diagnostics.InvariantDanglingEdge,
				Detail: fmt.Sprintf("edge source %s is not a node", key.Source),
			})
		}
		if _, ok := s.nodes[key.Sink]; !ok {
			diags = append(diags, diagnostics.InvariantViolation{
				File:   "",
				Kind:   diagnostics.InvariantDanglingEdge,
				Detail: fmt.Sprintf("edge sink %s is not a node", key.Sink),
			})
		}
	}
	for kind := entities.EdgeSection; kind <= entities.EdgePragmatic; kind++ {
		if s.hasCycleLocked(kind) {
			diags = append(diags, diagnostics.InvariantViolation{
				File:   "",
				Kind:   diagnostics.InvariantCycle,
				Detail: fmt.Sprintf("%s sub-graph contains a cycle", kind),
			})
		}
	}
	return diags
}

func (s *Store) hasCycleLocked(kind entities.EdgeKind) bool {
	state := make(map[valueobjects.Bid]int) // 0=unvisited 1=in-progress 2=done
	var visit func(valueobjects.Bid) bool
	visit = func(n valueobjects.Bid) bool {
		switch state[n] {
		case 1:
			return true
		case 2:
			return false
		}
		state[n] = 1
		for key := range s.bySource[n] {
			if key.Kind != kind {
				continue
			}
			if visit(key.Sink) {
				return true
			}
		}
		state[n] = 2
		return false
	}
	for n := range s.nodes {
		if state[n] == 0 && visit(n) {
			return true
		}
	}
	return false
}

// Snapshot is the lightweight, read-only view handed to transport
// consumers (the HTTP snapshot/query surface): plain values, no mutexes,
// safe to marshal directly.
type Snapshot struct {
	Nodes []*entities.Node `json:"nodes"`
	Edges []*entities.Edge `json:"edges"`
}

// Snapshot produces a consistent point-in-time copy of the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Nodes: make([]*entities.Node, 0, len(s.nodes)),
		Edges: make([]*entities.Edge, 0, len(s.edges)),
	}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, n.Clone())
	}
	for _, e := range s.edges {
		cp := *e
		snap.Edges = append(snap.Edges, &cp)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Bid.String() < snap.Nodes[j].Bid.String() })
	return snap
}
