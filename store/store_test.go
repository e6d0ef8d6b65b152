package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/index"
)

func newTestNode(t *testing.T, net valueobjects.Bid, kind entities.Kind, title string) *entities.Node {
	t.Helper()
	n, err := entities.NewNode(net, kind, title)
	require.NoError(t, err)
	return n
}

func TestStore_InsertNode_IdempotentMerge(t *testing.T) {
	// Arrange
	s := New(index.New())
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)
	n := newTestNode(t, net, entities.KindDocument, "Doc")
	n.Payload["a"] = 1

	// Act: first insert creates, second merges
	s.InsertNode(n)
	again := newTestNode(t, net, entities.KindDocument, "Doc")
	again.Bid = n.Bid
	again.Payload["b"] = 2
	merged := s.InsertNode(again)

	// Assert
	assert.Equal(t, 1, merged.Payload["a"])
	assert.Equal(t, 2, merged.Payload["b"])
}

func TestStore_UpsertEdge_RejectsCycle(t *testing.T) {
	// Arrange
	s := New(index.New())
	net, _ := valueobjects.NewBid(valueobjects.NilBid)
	a := newTestNode(t, net, entities.KindSection, "A")
	b := newTestNode(t, net, entities.KindSection, "B")
	s.InsertNode(a)
	s.InsertNode(b)
	require.NoError(t, s.UpsertEdge(&entities.Edge{Source: a.Bid, Sink: b.Bid, Kind: entities.EdgeSection}))

	// Act: b -> a would close a cycle in the Section sub-graph
	err := s.UpsertEdge(&entities.Edge{Source: b.Bid, Sink: a.Bid, Kind: entities.EdgeSection})

	// Assert
	assert.Error(t, err)
}

func TestStore_UpsertEdge_IndependentPerKind(t *testing.T) {
	// Arrange: a Section edge a->b should not block an Epistemic edge b->a,
	// since each EdgeKind's sub-graph is acyclic independently (I1).
	s := New(index.New())
	net, _ := valueobjects.NewBid(valueobjects.NilBid)
	a := newTestNode(t, net, entities.KindSection, "A")
	b := newTestNode(t, net, entities.KindSection, "B")
	s.InsertNode(a)
	s.InsertNode(b)
	require.NoError(t, s.UpsertEdge(&entities.Edge{Source: a.Bid, Sink: b.Bid, Kind: entities.EdgeSection}))

	// Act
	err := s.UpsertEdge(&entities.Edge{Source: b.Bid, Sink: a.Bid, Kind: entities.EdgeEpistemic})

	// Assert
	assert.NoError(t, err)
}

func TestStore_RemoveNode_CascadesEdges(t *testing.T) {
	// Arrange
	s := New(index.New())
	net, _ := valueobjects.NewBid(valueobjects.NilBid)
	a := newTestNode(t, net, entities.KindSection, "A")
	b := newTestNode(t, net, entities.KindSection, "B")
	s.InsertNode(a)
	s.InsertNode(b)
	require.NoError(t, s.UpsertEdge(&entities.Edge{Source: a.Bid, Sink: b.Bid, Kind: entities.EdgeSection}))

	// Act
	removed := s.RemoveNode(a.Bid)

	// Assert
	require.Len(t, removed, 1)
	ctx := s.Context(b.Bid)
	assert.Empty(t, ctx.Parents[entities.EdgeSection])
}

func TestStore_Context_SortedBySortKey(t *testing.T) {
	// Arrange
	s := New(index.New())
	net, _ := valueobjects.NewBid(valueobjects.NilBid)
	parent := newTestNode(t, net, entities.KindDocument, "Doc")
	first := newTestNode(t, net, entities.KindSection, "First")
	second := newTestNode(t, net, entities.KindSection, "Second")
	s.InsertNode(parent)
	s.InsertNode(first)
	s.InsertNode(second)
	require.NoError(t, s.UpsertEdge(&entities.Edge{Source: second.Bid, Sink: parent.Bid, Kind: entities.EdgeSection, Payload: map[string]any{"sort_key": 1}}))
	require.NoError(t, s.UpsertEdge(&entities.Edge{Source: first.Bid, Sink: parent.Bid, Kind: entities.EdgeSection, Payload: map[string]any{"sort_key": 0}}))

	// Act
	ctx := s.Context(parent.Bid)

	// Assert
	children := ctx.Parents[entities.EdgeSection]
	require.Len(t, children, 2)
	assert.Equal(t, first.Bid, children[0].Source)
	assert.Equal(t, second.Bid, children[1].Source)
}

func TestStore_Validate_DetectsDanglingEdge(t *testing.T) {
	// Arrange
	s := New(index.New())
	net, _ := valueobjects.NewBid(valueobjects.NilBid)
	a := newTestNode(t, net, entities.KindSection, "A")
	s.InsertNode(a)
	ghost, _ := valueobjects.NewBid(net)
	require.NoError(t, s.UpsertEdge(&entities.Edge{Source: a.Bid, Sink: ghost, Kind: entities.EdgeSection}))

	// Act
	diags := s.Validate()

	// Assert
	require.NotEmpty(t, diags)
}

func TestDiffContributions(t *testing.T) {
	// Arrange
	net, _ := valueobjects.NewBid(valueobjects.NilBid)
	a, _ := valueobjects.NewBid(net)
	b, _ := valueobjects.NewBid(net)

	// Act: node b was dropped between passes
	diff := DiffContributions([]valueobjects.Bid{a, b}, []valueobjects.Bid{a}, nil, nil)

	// Assert
	assert.Equal(t, []valueobjects.Bid{b}, diff.RemovedNodes)
}
