package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_YAMLFence(t *testing.T) {
	// Arrange
	src := []byte("---\ntitle: Hello\nbid: abc\n---\n# Body\n")

	// Act
	block, body, format := Split(src)

	// Assert
	assert.Equal(t, FormatYAML, format)
	assert.Equal(t, "# Body\n", string(body))
	fields, gotFormat, err := Parse(block, format)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, gotFormat)
	assert.Equal(t, "Hello", fields["title"])
}

func TestSplit_TOMLFence(t *testing.T) {
	// Arrange
	src := []byte("+++\ntitle = \"Hello\"\n+++\nbody text\n")

	// Act
	block, body, format := Split(src)

	// Assert
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, "body text\n", string(body))
	fields, _, err := Parse(block, format)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["title"])
}

func TestSplit_NoFence(t *testing.T) {
	// Arrange
	src := []byte("# Just a body\n")

	// Act
	block, body, format := Split(src)

	// Assert
	assert.Nil(t, block)
	assert.Equal(t, FormatNone, format)
	assert.Equal(t, src, body)
}

func TestParse_PriorityFallsBackToToml(t *testing.T) {
	// Arrange: valid TOML that is not valid YAML-as-a-map or JSON.
	block := []byte("title = \"Hello\"\ncount = 3\n")

	// Act
	fields, format, err := Parse(block, FormatNone)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, "Hello", fields["title"])
}

func TestRenderAndFence_RoundTrip(t *testing.T) {
	// Arrange
	fields := map[string]any{"title": "Hello", "bid": "xyz"}

	// Act
	rendered, err := Render(fields, FormatYAML)
	require.NoError(t, err)
	fenced := Fence(rendered, FormatYAML)
	block, _, format := Split(fenced)

	// Assert
	assert.Equal(t, FormatYAML, format)
	parsed, _, err := Parse(block, format)
	require.NoError(t, err)
	assert.Equal(t, "Hello", parsed["title"])
}
