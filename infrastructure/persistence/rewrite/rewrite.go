// Package rewrite implements ports.RewriteLock: per-path mutual
// exclusion for the driver's write-back step (spec §5 — "write-back
// holds an exclusive write lock on the target file only at rewrite
// time, not for the full parse"), so a watcher-triggered reparse and a
// sink-dependency-triggered reparse of the same file cannot interleave
// writes.
package rewrite

import (
	"context"
	"sync"

	"beliefgraph/application/ports"
)

// Locker is an in-process, per-path exclusive lock. It does not
// coordinate across processes; a single compiler process is what spec
// §5's single-threaded cooperative driver assumes.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) Lock(ctx context.Context, path string) (func(), error) {
	l.mu.Lock()
	pathLock, ok := l.locks[path]
	if !ok {
		pathLock = &sync.Mutex{}
		l.locks[path] = pathLock
	}
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		pathLock.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return pathLock.Unlock, nil
	case <-ctx.Done():
		go func() {
			<-acquired
			pathLock.Unlock()
		}()
		return nil, ctx.Err()
	}
}

var _ ports.RewriteLock = (*Locker)(nil)
