package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

func TestCodec_Parse_ExtractsFrontmatterAndSections(t *testing.T) {
	// Arrange
	src := []byte("---\ntitle: Root Doc\n---\n# Intro\n\nSome text with a [link](other.md \"bref://0123456789ab\").\n\n## Details\n\nMore text.\n")
	f := NewFactory()
	c := f().(*Codec)

	// Act
	require.NoError(t, c.Parse(src, nil))

	// Assert
	nodes := c.Nodes()
	require.Len(t, nodes, 3) // doc + Intro + Details
	assert.Equal(t, "Root Doc", nodes[0].Title)
	assert.Equal(t, "Intro", nodes[1].Title)
	assert.Equal(t, "Details", nodes[2].Title)

	links := c.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "other.md", links[0].RawTarget)
}

func TestCodec_GenerateSource_InjectsBid(t *testing.T) {
	// Arrange
	src := []byte("# Title Only\n\nBody.\n")
	f := NewFactory()
	c := f().(*Codec)
	require.NoError(t, c.Parse(src, nil))
	doc := c.Nodes()[0]
	newBid, err := entities.NewNode(valueobjects.NilBid, entities.KindDocument, "Title Only")
	require.NoError(t, err)
	doc.Bid = newBid.Bid

	// Act
	c.finalDocNode = doc
	out, err := c.GenerateSource()

	// Assert
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Contains(t, string(out), doc.Bid.String())
}
