package schemaver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_ObserveAndLatestVersion(t *testing.T) {
	c := New()
	_, ok := c.LatestVersion("docs/a.md")
	require.False(t, ok)

	c.Observe("docs/a.md", 1, "abc123", time.Unix(0, 0))
	v, ok := c.LatestVersion("docs/a.md")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Observe("docs/a.md", 2, "def456", time.Unix(1, 0))
	v, ok = c.LatestVersion("docs/a.md")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Len(t, c.History("docs/a.md"), 2)
}

func TestCheckStale(t *testing.T) {
	stale, reason := CheckStale("docs/a.md", Current)
	assert.False(t, stale)
	assert.Empty(t, reason)

	stale, reason = CheckStale("docs/a.md", Current-1)
	assert.True(t, stale)
	assert.Contains(t, reason, "docs/a.md")
}
