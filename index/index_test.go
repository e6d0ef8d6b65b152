package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beliefgraph/domain/core/valueobjects"
)

func TestIndex_RegisterAndResolve(t *testing.T) {
	// Arrange
	ix := New()
	net := mustBid(t, net0())
	bid := mustBid(t, net)

	// Act
	require.NoError(t, ix.RegisterBref(net, bid, bid.Bref()))
	require.True(t, ix.RegisterID(net, bid, "my-id"))
	require.True(t, ix.RegisterTitle(net, bid, valueobjects.NormalizeTitle("My Title")))
	require.NoError(t, ix.RegisterPath(net, bid, "docs/my-title.md"))

	// Assert
	got, ok := ix.ResolveBref(bid.Bref())
	assert.True(t, ok)
	assert.Equal(t, bid, got)

	got, ok = ix.ResolveID(net, "my-id")
	assert.True(t, ok)
	assert.Equal(t, bid, got)

	got, ok = ix.ResolveTitle(net, "my-title")
	assert.True(t, ok)
	assert.Equal(t, bid, got)

	got, ok = ix.ResolvePath(net, "docs/my-title.md")
	assert.True(t, ok)
	assert.Equal(t, bid, got)
}

func TestIndex_TitleCollisionFallsBackToBref(t *testing.T) {
	// Arrange: two sections in the same document produce the same anchor.
	ix := New()
	net := mustBid(t, net0())
	first := mustBid(t, net)
	second := mustBid(t, net)
	require.True(t, ix.RegisterTitle(net, first, "duplicate-heading"))

	// Act
	ok := ix.RegisterTitle(net, second, "duplicate-heading")

	// Assert: the second registration is refused, not silently overwritten.
	assert.False(t, ok)
	got, found := ix.ResolveTitle(net, "duplicate-heading")
	assert.True(t, found)
	assert.Equal(t, first, got)
}

func TestIndex_IDCollisionDropsLoser(t *testing.T) {
	// Arrange: two documents in the same network claim the same id.
	ix := New()
	net := mustBid(t, net0())
	first := mustBid(t, net)
	second := mustBid(t, net)
	require.True(t, ix.RegisterID(net, first, "shared-id"))

	// Act
	ok := ix.RegisterID(net, second, "shared-id")

	// Assert
	assert.False(t, ok)
	got, found := ix.ResolveID(net, "shared-id")
	assert.True(t, found)
	assert.Equal(t, first, got)
}

func TestIndex_Remove(t *testing.T) {
	// Arrange
	ix := New()
	net := mustBid(t, net0())
	bid := mustBid(t, net)
	require.NoError(t, ix.RegisterBref(net, bid, bid.Bref()))
	require.True(t, ix.RegisterID(net, bid, "to-remove"))

	// Act
	ix.Remove(bid)

	// Assert
	_, ok := ix.ResolveBref(bid.Bref())
	assert.False(t, ok)
	_, ok = ix.ResolveID(net, "to-remove")
	assert.False(t, ok)
}

func TestIndex_DropID(t *testing.T) {
	// Arrange
	ix := New()
	net := mustBid(t, net0())
	bid := mustBid(t, net)
	require.NoError(t, ix.RegisterBref(net, bid, bid.Bref()))
	require.True(t, ix.RegisterID(net, bid, "stale-id"))

	// Act
	ix.DropID(bid)

	// Assert: the bid is still resolvable by Bref, just not by Id anymore.
	_, ok := ix.ResolveID(net, "stale-id")
	assert.False(t, ok)
	got, ok := ix.ResolveBref(bid.Bref())
	assert.True(t, ok)
	assert.Equal(t, bid, got)
}

func net0() valueobjects.Bid { return valueobjects.NilBid }

func mustBid(t *testing.T, parent valueobjects.Bid) valueobjects.Bid {
	t.Helper()
	bid, err := valueobjects.NewBid(parent)
	require.NoError(t, err)
	return bid
}
