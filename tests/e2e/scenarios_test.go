// Package e2e exercises the compiler's testable properties end to end
// (spec §8), driving the same Driver/Resolver/Store components the CLI
// wires together rather than any one package in isolation.
package e2e

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beliefgraph/codec"
	"beliefgraph/codec/markdown"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/domain/events"
	"beliefgraph/driver"
	"beliefgraph/index"
	"beliefgraph/resolver"
	"beliefgraph/store"
)

// memFS is a minimal in-memory driver.FileSystem fake, with an optional
// per-path read counter used by the requeue-count scenario.
type memFS struct {
	files map[string][]byte
	reads map[string]int
}

func newMemFS(files map[string]string) *memFS {
	m := &memFS{files: make(map[string][]byte), reads: make(map[string]int)}
	for k, v := range files {
		m.files[k] = []byte(v)
	}
	return m
}

func (m *memFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	m.reads[path]++
	return m.files[path], nil
}

func (m *memFS) WriteFile(_ context.Context, path string, content []byte) error {
	m.files[path] = content
	return nil
}

type noopCache struct{}

func (noopCache) GetNode(context.Context, valueobjects.Bid) (*entities.Node, bool, error) {
	return nil, false, nil
}
func (noopCache) PutNode(context.Context, *entities.Node) error      { return nil }
func (noopCache) DeleteNode(context.Context, valueobjects.Bid) error { return nil }
func (noopCache) GetEdge(context.Context, entities.EdgeKey) (*entities.Edge, bool, error) {
	return nil, false, nil
}
func (noopCache) PutEdge(context.Context, *entities.Edge) error       { return nil }
func (noopCache) DeleteEdge(context.Context, entities.EdgeKey) error  { return nil }
func (noopCache) NodeByPath(context.Context, valueobjects.Bid, string) (*entities.Node, bool, error) {
	return nil, false, nil
}

type noopBus struct{}

func (noopBus) Publish(context.Context, events.DomainEvent) error        { return nil }
func (noopBus) PublishBatch(context.Context, []events.DomainEvent) error { return nil }

func newTestDriver(fs *memFS) *driver.Driver {
	reg := codec.NewRegistry()
	reg.Register("md", markdown.NewFactory())
	return driver.New(reg, index.New(), store.New(index.New()), noopCache{}, noopBus{}, fs, nil, valueobjects.NilBid, true)
}

// S1: forward reference. a.md cites b.md with auto_title before b.md has
// ever been parsed; once b.md is processed, a.md converges to a resolved,
// bref-stamped, title-filled citation (spec P1, P5, P8).
func TestScenario_S1_ForwardReference(t *testing.T) {
	fs := newMemFS(map[string]string{
		"a.md": "---\ntitle: A\n---\nSee [other](other.md \"{\\\"auto_title\\\":true}\").\n",
		"b.md": "---\ntitle: B\n---\nBody.\n",
	})
	// the link target names "other.md"; rename the second file to match
	// so the forward-reference path key resolves once b is parsed.
	fs.files["other.md"] = fs.files["b.md"]
	delete(fs.files, "b.md")

	d := newTestDriver(fs)
	d.Enqueue("a.md")
	d.Enqueue("other.md")

	diags, err := d.Run(context.Background())
	require.NoError(t, err)
	for _, diag := range diags {
		assert.NotEqual(t, "fatal", diag.Severity().String())
	}

	// The link's display text follows the sink's title; the title
	// attribute carries the bref stamp and the auto_title marker.
	rewritten := string(fs.files["a.md"])
	assert.Contains(t, rewritten, "[B](other.md")
	assert.Contains(t, rewritten, "bref://")
	assert.Contains(t, rewritten, `\"auto_title\":true`)
}

// S2: rename. a.md cites b.md by Bref; b.md is renamed to c.md and
// reparsed. a.md's link target is expected to converge onto c.md while
// the Bref and graph edges stay unchanged (spec P8).
func TestScenario_S2_Rename(t *testing.T) {
	fixedBid, err := valueobjects.ParseBid("018e2c9a-1234-7000-8000-000000000001")
	require.NoError(t, err)
	bref := fixedBid.Bref().String()

	fs := newMemFS(map[string]string{
		"b.md": "---\ntitle: B\nbid: " + fixedBid.String() + "\n---\nBody.\n",
		"a.md": "---\ntitle: A\n---\nSee [X](b.md \"bref://" + bref + "\").\n",
	})

	d := newTestDriver(fs)
	d.Enqueue("b.md")
	d.Enqueue("a.md")
	_, err = d.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, string(fs.files["a.md"]), `b.md "bref://`+bref)

	// Act: rename b.md to c.md, same content (same authored bid), and
	// reparse just the renamed file.
	fs.files["c.md"] = fs.files["b.md"]
	delete(fs.files, "b.md")
	diags, err := d.ReparseFile(context.Background(), "c.md")
	require.NoError(t, err)
	for _, diag := range diags {
		assert.NotEqual(t, "fatal", diag.Severity().String())
	}

	// Assert: a.md's link target follows the move; the bref is unchanged.
	assert.Contains(t, string(fs.files["a.md"]), `c.md "bref://`+bref)
	assert.NotContains(t, string(fs.files["a.md"]), `b.md "bref://`+bref)
}

// S3: auto-title refresh. Renaming b.md's title requeues exactly the one
// file (a.md) that cites it with auto_title, and that file's rendered
// link words follow the new title (spec P4, P8).
func TestScenario_S3_AutoTitleRefresh(t *testing.T) {
	fs := newMemFS(map[string]string{
		"b.md": "---\ntitle: Original\n---\nBody.\n",
		"a.md": "---\ntitle: A\n---\nSee [Original](b.md \"{\\\"auto_title\\\":true}\").\n",
	})
	d := newTestDriver(fs)
	d.Enqueue("b.md")
	d.Enqueue("a.md")
	_, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Contains(t, string(fs.files["a.md"]), "[Original](b.md")

	// Act: retitle b.md (keeping the bid the first pass injected) and
	// reparse just that file.
	fs.files["b.md"] = bytes.Replace(fs.files["b.md"], []byte("title: Original"), []byte("title: Renamed"), 1)
	fs.reads = make(map[string]int)
	_, err = d.ReparseFile(context.Background(), "b.md")
	require.NoError(t, err)

	// Assert: a.md was read (requeued) exactly once, and its display text
	// now reads the new title.
	assert.Equal(t, 1, fs.reads["a.md"])
	assert.Contains(t, string(fs.files["a.md"]), "[Renamed](b.md")
}

// S4: collision. Two "## Details" headings in one document; the first
// keeps the slug anchor, the second is addressed by its own Bref in the
// frontmatter sections manifest (spec P9).
func TestScenario_S4_Collision(t *testing.T) {
	ix := index.New()
	st := store.New(ix)
	r := resolver.New(ix, st)
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)

	src := []byte("---\ntitle: Doc\n---\n## Details\n\nFirst.\n\n## Details\n\nSecond.\n")
	c := markdown.NewFactory()()
	require.NoError(t, c.Parse(src, nil))

	result := r.Resolve("doc.md", "doc.md", net, c)
	require.Empty(t, result.Diagnostics)
	require.Len(t, result.Nodes, 3)

	second := result.Nodes[2]
	rendered, err := c.GenerateSource()
	require.NoError(t, err)
	require.NotNil(t, rendered)

	out := string(rendered)
	assert.Contains(t, out, "details:")
	assert.Contains(t, out, second.Bref().String()+":")
}

// S5: cycle rejection. Attempting Section edges A->B then B->A fails on
// the second insertion; the first edge is retained (spec I1, P2).
func TestScenario_S5_CycleRejection(t *testing.T) {
	ix := index.New()
	st := store.New(ix)
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)
	a, err := valueobjects.NewBid(net)
	require.NoError(t, err)
	b, err := valueobjects.NewBid(net)
	require.NoError(t, err)
	st.InsertNode(&entities.Node{Bid: a, Kind: entities.KindSection, HomeNet: net, Title: "A"})
	st.InsertNode(&entities.Node{Bid: b, Kind: entities.KindSection, HomeNet: net, Title: "B"})

	require.NoError(t, st.UpsertEdge(&entities.Edge{Source: a, Sink: b, Kind: entities.EdgeSection}))
	err = st.UpsertEdge(&entities.Edge{Source: b, Sink: a, Kind: entities.EdgeSection})
	require.Error(t, err)

	ctx := st.Context(a)
	require.Len(t, ctx.Children[entities.EdgeSection], 1)
	assert.Equal(t, b, ctx.Children[entities.EdgeSection][0].Sink)
}

// S6: reserved BID. A file declaring a bid in the system namespace is
// rejected wholesale; no node is added to the store (spec I3).
func TestScenario_S6_ReservedBid(t *testing.T) {
	ix := index.New()
	st := store.New(ix)
	r := resolver.New(ix, st)
	net, err := valueobjects.NewBid(valueobjects.NilBid)
	require.NoError(t, err)

	src := []byte("---\ntitle: Sneaky\nbid: " + entities.APINetworkBid.String() + "\n---\nBody.\n")
	c := markdown.NewFactory()()
	require.NoError(t, c.Parse(src, nil))

	result := r.Resolve("sneaky.md", "sneaky.md", net, c)
	require.Empty(t, result.Nodes)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "fatal", result.Diagnostics[0].Severity().String())
	_, ok := st.Node(entities.APINetworkBid)
	assert.False(t, ok)
}
