// Package driver implements the Compilation Driver (spec §4.4): the
// work-queue loop that converts a set of source files into a converged
// graph, tracking pending unresolved references and sink dependencies
// across passes until a fixed point is reached.
package driver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"sort"
	"time"

	"go.uber.org/zap"

	"beliefgraph/application/ports"
	"beliefgraph/codec"
	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/domain/events"
	"beliefgraph/index"
	"beliefgraph/infrastructure/ratelimit"
	"beliefgraph/pkg/schemaver"
	"beliefgraph/resolver"
	"beliefgraph/store"
)

// FileSystem is the minimal read/write surface the driver needs over
// source files, kept narrow so tests can substitute an in-memory fake
// without pulling in a real filesystem.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, content []byte) error
}

// contribution records what one file contributed to the graph in its
// most recently completed pass, used by reconciliation (terminate_stack)
// to diff against the next pass's contribution.
type contribution struct {
	nodes []valueobjects.Bid
	edges []entities.EdgeKey
}

// pendingKey is one (file, key) pair awaiting resolution.
type pendingKey struct {
	file    string
	selfBid valueobjects.Bid
	key     valueobjects.NodeKey
	auto    bool
}

// Driver owns one compilation session: the work queues, the pending
// table, and the per-file contribution history needed for
// reconciliation. It is not safe for concurrent use by multiple
// goroutines (spec §5: single-threaded cooperative scheduling); the
// Store and Index it wraps may still be read concurrently by observers.
type Driver struct {
	registry *codec.Registry
	ix       *index.Index
	st       *store.Store
	res      *resolver.Resolver
	cache    ports.GlobalCache
	bus      ports.EventPublisher
	fs       FileSystem
	log      *zap.Logger

	homeNet valueobjects.Bid

	queueP []string
	queueR []string
	queued map[string]bool

	pending       []pendingKey
	contributions map[string]contribution

	writeEnabled bool
	reparseLimit *ratelimit.PathLimiter
	grammar      *schemaver.Checker
	lock         ports.RewriteLock
}

// SetRewriteLock installs the exclusive write-back lock (spec §5): held
// only around the call to fs.WriteFile, not the rest of the pass, so a
// watcher-triggered reparse and a sink-dependency-triggered reparse of
// the same file cannot interleave writes. Optional; nil means unlocked.
func (d *Driver) SetRewriteLock(l ports.RewriteLock) {
	d.lock = l
}

func (d *Driver) writeBack(ctx context.Context, relPath string, content []byte) error {
	if d.lock == nil {
		return d.fs.WriteFile(ctx, relPath, content)
	}
	unlock, err := d.lock.Lock(ctx, relPath)
	if err != nil {
		return err
	}
	defer unlock()
	return d.fs.WriteFile(ctx, relPath, content)
}

// SetReparseLimiter installs a rate limiter that throttles how often
// ReparseFile will act on the same path, guarding against reparse storms
// from a noisy filesystem watcher. Optional; nil means unthrottled.
func (d *Driver) SetReparseLimiter(l *ratelimit.PathLimiter) {
	d.reparseLimit = l
}

// SetGrammarChecker installs the canonical-link-grammar version tracker
// (spec §4.3 write-back). Optional; nil disables staleness warnings.
func (d *Driver) SetGrammarChecker(c *schemaver.Checker) {
	d.grammar = c
}

// New constructs a Driver. writeEnabled mirrors spec §4.4's
// "write it (subject to write-enabled flag)" — set false for a
// read-only / dry-run compile.
func New(registry *codec.Registry, ix *index.Index, st *store.Store, cache ports.GlobalCache, bus ports.EventPublisher, fs FileSystem, log *zap.Logger, homeNet valueobjects.Bid, writeEnabled bool) *Driver {
	return &Driver{
		registry:      registry,
		ix:            ix,
		st:            st,
		res:           resolver.New(ix, st),
		cache:         cache,
		bus:           bus,
		fs:            fs,
		log:           log,
		homeNet:       homeNet,
		queued:        make(map[string]bool),
		contributions: make(map[string]contribution),
		writeEnabled:  writeEnabled,
	}
}

// Enqueue adds a never-before-parsed file to the P queue.
func (d *Driver) Enqueue(relPath string) {
	if d.queued[relPath] {
		return
	}
	d.queued[relPath] = true
	d.queueP = append(d.queueP, relPath)
}

func (d *Driver) requeue(relPath string) {
	if d.queued[relPath] {
		return
	}
	d.queued[relPath] = true
	d.queueR = append(d.queueR, relPath)
}

// Run drains P then R, repeatedly, until both are empty (spec §4.4
// driver loop). It returns every diagnostic accumulated across the
// whole pass; callers decide which severities constitute a failed
// build.
func (d *Driver) Run(ctx context.Context) ([]diagnostics.Diagnostic, error) {
	var all []diagnostics.Diagnostic

	for len(d.queueP) > 0 || len(d.queueR) > 0 {
		var file string
		if len(d.queueP) > 0 {
			file, d.queueP = d.queueP[0], d.queueP[1:]
		} else {
			file, d.queueR = d.queueR[0], d.queueR[1:]
		}
		delete(d.queued, file)

		diags, err := d.processFile(ctx, file)
		all = append(all, diags...)
		if err != nil {
			return all, err
		}
		d.resolvePending(ctx)
	}
	return all, nil
}

// ReparseFile runs the loop for a single file, for the incremental path
// a filesystem watcher drives (spec §4.4 "Incremental updates").
func (d *Driver) ReparseFile(ctx context.Context, relPath string) ([]diagnostics.Diagnostic, error) {
	if d.reparseLimit != nil && !d.reparseLimit.Allow(relPath) {
		return nil, nil
	}
	d.Enqueue(relPath)
	return d.Run(ctx)
}

func (d *Driver) processFile(ctx context.Context, relPath string) ([]diagnostics.Diagnostic, error) {
	content, err := d.fs.ReadFile(ctx, relPath)
	if err != nil {
		ioErr := diagnostics.IoError{File: relPath, Cause: err}
		return []diagnostics.Diagnostic{ioErr}, diagnostics.NewBuildError(ioErr)
	}

	ext := path.Ext(relPath)
	if len(ext) > 0 {
		ext = ext[1:]
	}
	c, ok := d.registry.New(ext)
	if !ok {
		return []diagnostics.Diagnostic{diagnostics.ParseWarning{File: relPath, Reason: "no codec registered for extension " + ext}}, nil
	}

	var current *entities.Node
	if cached, found, err := d.cache.NodeByPath(ctx, d.homeNet, relPath); err == nil && found {
		current = cached
	}

	if err := c.Parse(content, current); err != nil {
		return []diagnostics.Diagnostic{diagnostics.ParseWarning{File: relPath, Reason: err.Error()}}, nil
	}

	result := d.res.Resolve(relPath, relPath, d.homeNet, c)

	var evts []events.DomainEvent
	newNodes := make([]valueobjects.Bid, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		var oldPath, oldTitle string
		var hadPrevNode bool
		if before, ok := d.st.Node(n.Bid); ok {
			oldPath = before.Path
			oldTitle = before.Title
			hadPrevNode = true
		}
		merged := d.st.InsertNode(n)
		newNodes = append(newNodes, merged.Bid)
		evts = append(evts, events.NewNodeUpserted(merged, time.Now()))
		if d.cache != nil {
			_ = d.cache.PutNode(ctx, merged)
		}
		if hadPrevNode && oldPath != "" && merged.Path != "" && oldPath != merged.Path {
			// Moved: every referrer needs its link target rewritten.
			d.requeueReferrers(merged.Bid, relPath, func(*entities.Edge) bool { return true })
		}
		if hadPrevNode && oldTitle != merged.Title {
			// Retitled: only referrers citing it with auto_title care.
			d.requeueReferrers(merged.Bid, relPath, func(e *entities.Edge) bool { return e.AutoTitle })
		}
	}

	newEdgeKeys := d.edgeKeysFor(newNodes)
	if d.cache != nil {
		for _, key := range newEdgeKeys {
			if e, ok := d.st.Edge(key); ok {
				_ = d.cache.PutEdge(ctx, e)
			}
		}
	}

	prev, hadPrev := d.contributions[relPath]
	if hadPrev {
		diff := store.DiffContributions(prev.nodes, newNodes, prev.edges, newEdgeKeys)
		for _, bid := range diff.RemovedNodes {
			d.st.RemoveNode(bid)
			evts = append(evts, events.NewNodeRemoved(bid, time.Now()))
			if d.cache != nil {
				_ = d.cache.DeleteNode(ctx, bid)
			}
		}
		for _, key := range diff.RemovedEdges {
			evts = append(evts, events.NewEdgeRemoved(key, time.Now()))
			if d.cache != nil {
				_ = d.cache.DeleteEdge(ctx, key)
			}
		}
	}
	d.contributions[relPath] = contribution{nodes: newNodes, edges: newEdgeKeys}

	for _, diag := range result.Diagnostics {
		switch dd := diag.(type) {
		case diagnostics.UnresolvedReference:
			d.pending = append(d.pending, pendingKey{file: relPath, selfBid: dd.SelfBid, key: dd.Other, auto: dd.RequiresRewrite})
		case diagnostics.SinkDependency:
			d.requeue(dd.File)
		}
	}

	if d.grammar != nil && len(result.Nodes) > 0 {
		if gv, ok := result.Nodes[0].Payload["grammar_version"]; ok {
			if v, ok := toInt(gv); ok {
				if stale, reason := schemaver.CheckStale(relPath, v); stale {
					result.Diagnostics = append(result.Diagnostics, diagnostics.ParseWarning{File: relPath, Reason: reason})
				}
			}
		}
	}

	if d.writeEnabled && result.Rewritten != nil {
		if err := d.writeBack(ctx, relPath, result.Rewritten); err != nil {
			ioErr := diagnostics.IoError{File: relPath, Cause: err}
			return append(result.Diagnostics, ioErr), diagnostics.NewBuildError(ioErr)
		}
		if d.grammar != nil {
			sum := sha256.Sum256(result.Rewritten)
			d.grammar.Observe(relPath, schemaver.Current, hex.EncodeToString(sum[:]), time.Now())
		}
	}

	if d.bus != nil {
		for _, e := range evts {
			_ = d.bus.Publish(ctx, e)
		}
	}

	return result.Diagnostics, nil
}

// requeueReferrers finds every file citing changedBid via an Epistemic
// edge matching keep, and requeues it, so its next pass can reconverge
// its link text onto changedBid's new path or title (spec P8: "referring
// files get requeued and their link targets updated"). self is excluded
// since its own contribution for this pass has already been recorded.
func (d *Driver) requeueReferrers(changedBid valueobjects.Bid, self string, keep func(*entities.Edge) bool) {
	for _, edge := range d.st.ReferrersInto(changedBid, entities.EdgeEpistemic) {
		if !keep(edge) {
			continue
		}
		file, ok := d.st.DocumentPath(edge.Source)
		if !ok || file == self {
			continue
		}
		d.requeue(file)
	}
}

// resolvePending scans the pending table for keys now resolvable in the
// store, creating the edge and requeuing the owning file when the key
// requires a source-text rewrite (spec §4.4: "after file: scan pending
// for keys now resolvable").
func (d *Driver) resolvePending(ctx context.Context) {
	remaining := d.pending[:0]
	for _, p := range d.pending {
		bid, ok := d.ix.Resolve(p.key)
		if !ok {
			remaining = append(remaining, p)
			continue
		}
		edge := &entities.Edge{Source: p.selfBid, Sink: bid, Kind: entities.EdgeEpistemic, AutoTitle: p.auto, OwnedBy: entities.OwnedBySource}
		if err := d.st.UpsertEdge(edge); err == nil && d.cache != nil {
			_ = d.cache.PutEdge(ctx, edge)
		}
		if p.auto || p.key.Kind == valueobjects.KeyPath || p.key.Kind == valueobjects.KeyTitle {
			d.requeue(p.file)
		}
	}
	d.pending = remaining
}

func (d *Driver) edgeKeysFor(nodeBids []valueobjects.Bid) []entities.EdgeKey {
	seen := make(map[entities.EdgeKey]bool)
	var keys []entities.EdgeKey
	for _, bid := range nodeBids {
		ctx := d.st.Context(bid)
		for _, list := range ctx.Children {
			for _, e := range list {
				k := e.Key()
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Source.String() < keys[j].Source.String() })
	return keys
}

// toInt normalizes the numeric types YAML/JSON/TOML decoders produce
// for a frontmatter field (float64, int64, int) to a plain int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
