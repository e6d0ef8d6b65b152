package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beliefgraph/application/ports"
	"beliefgraph/codec"
	"beliefgraph/codec/markdown"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/domain/events"
	"beliefgraph/index"
	"beliefgraph/store"
)

type memFS struct {
	files map[string][]byte
}

func newMemFS(files map[string]string) *memFS {
	m := &memFS{files: make(map[string][]byte)}
	for k, v := range files {
		m.files[k] = []byte(v)
	}
	return m
}

func (m *memFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	return m.files[path], nil
}

func (m *memFS) WriteFile(_ context.Context, path string, content []byte) error {
	m.files[path] = content
	return nil
}

type memCache struct{}

func (memCache) GetNode(context.Context, valueobjects.Bid) (*entities.Node, bool, error) { return nil, false, nil }
func (memCache) PutNode(context.Context, *entities.Node) error                           { return nil }
func (memCache) DeleteNode(context.Context, valueobjects.Bid) error                      { return nil }
func (memCache) GetEdge(context.Context, entities.EdgeKey) (*entities.Edge, bool, error) { return nil, false, nil }
func (memCache) PutEdge(context.Context, *entities.Edge) error                           { return nil }
func (memCache) DeleteEdge(context.Context, entities.EdgeKey) error                      { return nil }
func (memCache) NodeByPath(context.Context, valueobjects.Bid, string) (*entities.Node, bool, error) {
	return nil, false, nil
}

type recordingBus struct {
	events []events.DomainEvent
}

func (b *recordingBus) Publish(_ context.Context, e events.DomainEvent) error {
	b.events = append(b.events, e)
	return nil
}
func (b *recordingBus) PublishBatch(_ context.Context, evts []events.DomainEvent) error {
	b.events = append(b.events, evts...)
	return nil
}

var _ ports.GlobalCache = memCache{}
var _ ports.EventPublisher = (*recordingBus)(nil)

func newTestDriver(fs *memFS) (*Driver, *recordingBus) {
	reg := codec.NewRegistry()
	reg.Register("md", markdown.NewFactory())
	bus := &recordingBus{}
	net := valueobjects.NilBid
	d := New(reg, index.New(), store.New(index.New()), memCache{}, bus, fs, nil, net, true)
	return d, bus
}

func TestDriver_Run_ForwardReferenceResolvesAfterSecondFile(t *testing.T) {
	// Arrange: a.md cites other.md, which is processed after a.md, so the
	// citation is unresolved on a.md's first pass, matching S1 (forward
	// reference).
	fs := newMemFS(map[string]string{
		"a.md":     "---\ntitle: A\n---\nSee [other](other.md).\n",
		"other.md": "---\ntitle: Other\n---\nBody.\n",
	})
	d, _ := newTestDriver(fs)
	d.Enqueue("a.md")
	d.Enqueue("other.md")

	// Act
	diags, err := d.Run(context.Background())

	// Assert
	require.NoError(t, err)
	for _, diag := range diags {
		assert.NotEqual(t, "fatal", diag.Severity().String())
	}
	assert.Contains(t, string(fs.files["a.md"]), `[other](other.md "bref://`)
}

func TestDriver_Run_InjectsBidIntoSource(t *testing.T) {
	// Arrange
	fs := newMemFS(map[string]string{
		"solo.md": "# Solo\n\nNo frontmatter yet.\n",
	})
	d, _ := newTestDriver(fs)
	d.Enqueue("solo.md")

	// Act
	_, err := d.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, string(fs.files["solo.md"]), "bid:")
}
