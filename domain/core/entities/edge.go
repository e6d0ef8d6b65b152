package entities

import "beliefgraph/domain/core/valueobjects"

// EdgeKind is one of the three relation kinds the store keeps acyclic
// independently (spec §3.1, invariant I1).
type EdgeKind int

const (
	// EdgeSection is structural containment (heading hierarchy, frontmatter
	// sections manifest).
	EdgeSection EdgeKind = iota
	// EdgeEpistemic is a citation/link found in prose.
	EdgeEpistemic
	// EdgePragmatic is a domain-defined relationship carried by metadata.
	EdgePragmatic
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSection:
		return "section"
	case EdgeEpistemic:
		return "epistemic"
	case EdgePragmatic:
		return "pragmatic"
	default:
		return "unknown"
	}
}

// Owner identifies which endpoint's source text authored the relation.
type Owner int

const (
	OwnedBySource Owner = iota
	OwnedBySink
)

func (o Owner) String() string {
	if o == OwnedBySource {
		return "source"
	}
	return "sink"
}

// Edge is a directed relation from Source (child/producer) to Sink
// (parent/consumer).
type Edge struct {
	Source valueobjects.Bid
	Sink   valueobjects.Bid
	Kind   EdgeKind

	// Payload is opaque except for the reserved "sort_key" entry, a small
	// integer imposing deterministic order among sibling edges (I4).
	Payload map[string]any

	// AutoTitle, when true, marks that the link text naming Sink was
	// machine-chosen from Sink's title and must be refreshed whenever
	// Sink's title changes (spec §4.3 canonical link grammar).
	AutoTitle bool

	// OwnedBy records which side's source text authored this edge. The
	// driver picks files to requeue from the source node's document path,
	// not from this field.
	OwnedBy Owner
}

// SortKey extracts the sort_key payload entry, defaulting to 0 when
// absent or of the wrong type.
func (e *Edge) SortKey() int {
	if e.Payload == nil {
		return 0
	}
	if v, ok := e.Payload["sort_key"]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

// WithSortKey returns a payload map (copying e.Payload) with sort_key set.
func (e *Edge) WithSortKey(n int) map[string]any {
	out := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		out[k] = v
	}
	out["sort_key"] = n
	return out
}

// Key uniquely identifies an edge slot in the store: a (source, sink,
// kind) triple (spec §4.2 upsert_edge contract — "if (src,sink,kind)
// exists, replaces payload").
type EdgeKey struct {
	Source valueobjects.Bid
	Sink   valueobjects.Bid
	Kind   EdgeKind
}

// Key returns this edge's store key.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Sink: e.Sink, Kind: e.Kind}
}
