package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPathLimiter_AllowDrainsAndRefills(t *testing.T) {
	l := New(2, 50*time.Millisecond)

	assert.True(t, l.Allow("docs/a.md"))
	assert.True(t, l.Allow("docs/a.md"))
	assert.False(t, l.Allow("docs/a.md"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, l.Allow("docs/a.md"))
}

func TestPathLimiter_TracksPathsIndependently(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.Allow("docs/a.md"))
	assert.True(t, l.Allow("docs/b.md"))
	assert.False(t, l.Allow("docs/a.md"))
}

func TestPathLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.Allow("docs/a.md"))
	assert.False(t, l.Allow("docs/a.md"))

	l.Reset("docs/a.md")
	assert.True(t, l.Allow("docs/a.md"))
}
