package osfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fs.WriteFile(ctx, "docs/a.md", []byte("# hello")))

	content, err := fs.ReadFile(ctx, "docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# hello", string(content))

	raw, err := os.ReadFile(filepath.Join(dir, "docs", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hello", string(raw))
}

func TestFS_ResolveRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	require.NoError(t, err)

	_, err = fs.ReadFile(context.Background(), "../outside.md")
	assert.Error(t, err)
}

func TestFS_DiscoverFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.yaml"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("c"), 0o644))

	fs, err := New(dir)
	require.NoError(t, err)

	paths, err := fs.Discover(func(ext string) bool {
		return ext == "md" || ext == "yaml"
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.md", filepath.Join("sub", "b.yaml")}, paths)
}

func TestNew_RejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(file)
	assert.Error(t, err)
}
