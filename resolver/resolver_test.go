package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beliefgraph/codec/markdown"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/index"
	"beliefgraph/store"
)

func TestResolver_Resolve_AssignsIdentityAndSections(t *testing.T) {
	// Arrange
	ix := index.New()
	st := store.New(ix)
	r := New(ix, st)
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)

	src := []byte("---\ntitle: Doc One\n---\n# Intro\n\nSome text.\n\n## Details\n\nMore text.\n")
	f := markdown.NewFactory()
	c := f()
	require.NoError(t, c.Parse(src, nil))

	// Act
	result := r.Resolve("doc-one.md", "doc-one.md", net, c)

	// Assert
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Nodes, 3)
	for _, n := range result.Nodes {
		assert.False(t, n.Bid.IsNil())
	}
	ctx := st.Context(result.Nodes[0].Bid)
	assert.Len(t, ctx.Parents[entities.EdgeSection], 1) // Intro -> Doc
}

func TestResolver_Resolve_ForwardReferenceUnresolved(t *testing.T) {
	// Arrange
	ix := index.New()
	st := store.New(ix)
	r := New(ix, st)
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)

	src := []byte("---\ntitle: Doc A\n---\nSee [other](other.md).\n")
	f := markdown.NewFactory()
	c := f()
	require.NoError(t, c.Parse(src, nil))

	// Act
	result := r.Resolve("a.md", "a.md", net, c)

	// Assert
	require.Len(t, result.Diagnostics, 1)
}

func TestResolver_Resolve_ResolvesOnceTargetKnown(t *testing.T) {
	// Arrange
	ix := index.New()
	st := store.New(ix)
	r := New(ix, st)
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)

	// Parse the target first so its path is already indexed.
	targetSrc := []byte("---\ntitle: Other\n---\nTarget body.\n")
	targetFactory := markdown.NewFactory()
	targetCodec := targetFactory()
	require.NoError(t, targetCodec.Parse(targetSrc, nil))
	r.Resolve("other.md", "other.md", net, targetCodec)

	srcSrc := []byte("---\ntitle: Doc A\n---\nSee [other](other.md).\n")
	srcFactory := markdown.NewFactory()
	srcCodec := srcFactory()
	require.NoError(t, srcCodec.Parse(srcSrc, nil))

	// Act
	result := r.Resolve("a.md", "a.md", net, srcCodec)

	// Assert
	assert.Empty(t, result.Diagnostics)
}
