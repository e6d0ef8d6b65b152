// Package schemaver tracks the on-disk canonical-link-grammar version
// (spec §4.3) a source file was last rewritten with. The payload schema
// itself stays an opaque, uninterpreted string (spec §3.1) — this
// package never migrates it — but the grammar the rewriter emits can
// change across releases of this compiler, and a file rewritten by an
// older version should be flagged rather than silently reparsed as if
// current.
package schemaver

import (
	"fmt"
	"sync"
	"time"
)

// Current is the canonical-link-grammar version this build emits when
// it rewrites a source file.
const Current = 1

// Record is one rewrite's grammar-version stamp, kept for history.
type Record struct {
	Path      string    `json:"path"`
	Version   int       `json:"version"`
	Checksum  string    `json:"checksum"`
	StampedAt time.Time `json:"stamped_at"`
}

// Checker tracks the grammar version each known file was last rewritten
// with, and flags files whose recorded version lags Current.
type Checker struct {
	mu      sync.RWMutex
	history map[string][]Record
}

// New constructs an empty Checker.
func New() *Checker {
	return &Checker{history: make(map[string][]Record)}
}

// Observe records that path was rewritten at version with the given
// content checksum (an opaque fingerprint; callers typically pass a hash
// of the rewritten bytes). stampedAt is supplied by the caller since this
// package cannot call time.Now() independent of its caller's clock
// assumptions in tests.
func (c *Checker) Observe(path string, version int, checksum string, stampedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[path] = append(c.history[path], Record{
		Path: path, Version: version, Checksum: checksum, StampedAt: stampedAt,
	})
}

// LatestVersion returns the most recently observed grammar version for
// path, or (0, false) if the file has never been observed.
func (c *Checker) LatestVersion(path string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	recs := c.history[path]
	if len(recs) == 0 {
		return 0, false
	}
	return recs[len(recs)-1].Version, true
}

// History returns every observed record for path, oldest first.
func (c *Checker) History(path string) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	recs := c.history[path]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// CheckStale reports whether a file claiming to be at recordedVersion is
// behind Current, returning a human-readable reason when it is.
func CheckStale(path string, recordedVersion int) (stale bool, reason string) {
	if recordedVersion >= Current {
		return false, ""
	}
	return true, fmt.Sprintf("%s: canonical link grammar v%d is older than current v%d; links will be rewritten to the current grammar on next write-back", path, recordedVersion, Current)
}
