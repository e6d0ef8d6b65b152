package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"beliefgraph/domain/core/valueobjects"
)

func TestParseLinkTitle_AllSlots(t *testing.T) {
	// Arrange
	raw := `My Words {"auto_title": true} bref://0123456789ab`

	// Act
	lt := ParseLinkTitle(raw)

	// Assert
	assert.Equal(t, "My Words", lt.Words)
	assert.True(t, lt.AutoTitle)
	assert.True(t, lt.HasBref)
	want, _ := valueobjects.ParseBref("0123456789ab")
	assert.Equal(t, want, lt.Bref)
}

func TestParseLinkTitle_BrefOnly(t *testing.T) {
	// Act
	lt := ParseLinkTitle("bref://aaaaaaaaaaaa")

	// Assert
	assert.Empty(t, lt.Words)
	assert.False(t, lt.AutoTitle)
	assert.True(t, lt.HasBref)
}

func TestLinkTitle_RenderRoundTrip(t *testing.T) {
	// Arrange
	bref, _ := valueobjects.ParseBref("aaaaaaaaaaaa")
	lt := LinkTitle{Words: "Some Title", AutoTitle: true, HasBref: true, Bref: bref}

	// Act
	rendered := lt.Render()
	reparsed := ParseLinkTitle(rendered)

	// Assert
	assert.Equal(t, lt.Words, reparsed.Words)
	assert.Equal(t, lt.AutoTitle, reparsed.AutoTitle)
	assert.Equal(t, lt.Bref, reparsed.Bref)
}

func TestParseLinkTarget(t *testing.T) {
	// Act
	tgt := ParseLinkTarget("../other.md#some-anchor")

	// Assert
	assert.Equal(t, "../other.md", tgt.Path)
	assert.Equal(t, "some-anchor", tgt.Anchor)
	assert.Equal(t, "../other.md#some-anchor", tgt.Render())
}

func TestParseLinkTarget_FragmentOnly(t *testing.T) {
	// Act
	tgt := ParseLinkTarget("#local-anchor")

	// Assert
	assert.Equal(t, "", tgt.Path)
	assert.Equal(t, "local-anchor", tgt.Anchor)
}
