// Package codec defines the parsing plug-in contract (spec §6) and the
// factory registry that dispatches a file extension (including its
// registered synonyms) to the codec that should parse it.
package codec

import (
	"strings"

	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// ResolvedContext is what the driver hands a codec once one of its
// intermediate nodes' identity and position in the graph are known, so
// the codec can materialize a final node and, if it holds auto_title
// links, render refreshed link text.
type ResolvedContext struct {
	HomeNet  valueobjects.Bid
	HomePath string
	Node     *entities.Node
}

// Codec is the per-file parsing/rewriting contract. A fresh instance is
// produced per file by a Factory; a Codec is stateful across its four
// methods for the lifetime of one parse pass over one file.
type Codec interface {
	// Parse populates internal state from raw source. current is the
	// node previously known for this file (from session_bb), or nil on
	// first observation.
	Parse(content []byte, current *entities.Node) error

	// Nodes enumerates the intermediate nodes this file contributes:
	// the document node plus any structural sub-nodes (sections).
	Nodes() []*entities.Node

	// InjectContext takes one node returned by Nodes, by its index in
	// that order, with that node's resolved identity and neighbors. It
	// returns the fully materialized node, or nil if the codec elects to
	// suppress it (e.g. an empty section). The driver's Parse, Resolve,
	// GenerateSource sequence does not call it.
	InjectContext(index int, ctx ResolvedContext) *entities.Node

	// GenerateSource returns the possibly-rewritten source text, or nil
	// if the file is unchanged and does not need writing back.
	GenerateSource() ([]byte, error)

	// Diagnostics drains any ParseWarnings accumulated during Parse.
	Diagnostics() []diagnostics.Diagnostic
}

// Factory produces a fresh Codec instance for one file.
type Factory func() Codec

// Registry maps file extensions (without the leading dot) to Factory,
// resolving synonyms to a single canonical extension first.
type Registry struct {
	factories map[string]Factory
	synonyms  map[string]string
}

// NewRegistry builds an empty Registry with the spec's built-in
// extension synonyms (yaml/yml, json/jsn, toml/tml) pre-wired.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		synonyms: map[string]string{
			"yml": "yaml",
			"jsn": "json",
			"tml": "toml",
		},
	}
	return r
}

// Register associates ext (the canonical spelling) with factory.
func (r *Registry) Register(ext string, factory Factory) {
	r.factories[strings.ToLower(ext)] = factory
}

// Alias registers synonym as an alternate spelling of canonical.
func (r *Registry) Alias(synonym, canonical string) {
	r.synonyms[strings.ToLower(synonym)] = strings.ToLower(canonical)
}

// canonicalExt resolves ext through the synonym table.
func (r *Registry) canonicalExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if canon, ok := r.synonyms[ext]; ok {
		return canon
	}
	return ext
}

// New constructs a fresh Codec for the file extension ext (with or
// without a leading dot), or returns ok=false if no codec is
// registered for it.
func (r *Registry) New(ext string) (Codec, bool) {
	factory, ok := r.factories[r.canonicalExt(ext)]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Has reports whether ext resolves to a registered codec.
func (r *Registry) Has(ext string) bool {
	_, ok := r.factories[r.canonicalExt(ext)]
	return ok
}
