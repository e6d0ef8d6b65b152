package resolver

import (
	"path/filepath"

	"beliefgraph/codec"
	"beliefgraph/codec/markdown"
	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/validators"
	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/index"
	"beliefgraph/store"
)

// Resolver runs the six-step per-node pipeline (spec §4.3) over one
// parsed file: identity assignment, link extraction/classification, key
// construction, resolution attempt, section-stack reconciliation, and
// the write-back decision.
type Resolver struct {
	ix    *index.Index
	st    *store.Store
	namer *validators.NamespaceValidator
}

// New constructs a Resolver sharing idx and st with the rest of the
// driver's session state.
func New(ix *index.Index, st *store.Store) *Resolver {
	return &Resolver{ix: ix, st: st, namer: validators.NewNamespaceValidator()}
}

// Result carries everything the driver needs after resolving one file:
// the rewritten source (nil if unchanged) and the diagnostics produced.
type Result struct {
	Nodes       []*entities.Node
	Diagnostics []diagnostics.Diagnostic
	Rewritten   []byte
}

// Resolve runs the pipeline for one file already parsed by c, homed
// under homeNet, at path relPath (network-relative).
func (r *Resolver) Resolve(file string, relPath string, homeNet valueobjects.Bid, c codec.Codec) Result {
	var res Result
	nodes := c.Nodes()
	if len(nodes) == 0 {
		return res
	}

	// Step 1: identity assignment.
	for _, n := range nodes {
		n.HomeNet = homeNet
		if n.Bid.IsNil() {
			bid, err := valueobjects.NewBid(homeNet)
			if err != nil {
				res.Diagnostics = append(res.Diagnostics, diagnostics.IoError{File: file, Cause: err})
				return res
			}
			n.Bid = bid
		}
		if d := r.namer.ValidateBid(file, n.Bid); d != nil {
			res.Diagnostics = append(res.Diagnostics, d)
			return res
		}
		if n.ID != "" {
			if d := r.namer.ValidateID(file, n.ID); d != nil {
				res.Diagnostics = append(res.Diagnostics, d)
				return res
			}
		}
	}
	docNode := nodes[0]
	docNode.Path = relPath
	if err := r.ix.RegisterBref(homeNet, docNode.Bid, docNode.Bref()); err != nil {
		res.Diagnostics = append(res.Diagnostics, diagnostics.InvariantViolation{File: file, Kind: diagnostics.InvariantReservedNamespace, Detail: err.Error()})
	}
	if err := r.ix.RegisterPath(homeNet, docNode.Bid, relPath); err != nil {
		res.Diagnostics = append(res.Diagnostics, diagnostics.InvariantViolation{File: file, Kind: diagnostics.InvariantDanglingEdge, Detail: err.Error()})
	}
	if docNode.ID != "" {
		if !r.ix.RegisterID(homeNet, docNode.Bid, docNode.ID) {
			res.Diagnostics = append(res.Diagnostics, diagnostics.ParseWarning{File: file, Reason: "id " + docNode.ID + " already claimed; dropped"})
		}
	}
	anchor := valueobjects.NormalizeTitle(docNode.Title)
	r.ix.RegisterTitle(homeNet, docNode.Bid, anchor)

	for _, n := range nodes[1:] {
		if err := r.ix.RegisterBref(homeNet, n.Bid, n.Bref()); err != nil {
			res.Diagnostics = append(res.Diagnostics, diagnostics.InvariantViolation{File: file, Kind: diagnostics.InvariantReservedNamespace, Detail: err.Error()})
		}
	}

	// Step 5 performed here (before link resolution so same-document
	// fragment links can resolve against freshly assigned section bids):
	// section-stack reconciliation for Markdown documents.
	md, isMarkdown := c.(*markdown.Codec)
	titleToBid := map[string]valueobjects.Bid{anchor: docNode.Bid}
	if isMarkdown {
		r.reconcileSections(homeNet, docNode, md, &res)
		for _, s := range md.Sections() {
			a := valueobjects.NormalizeTitle(s.Node.Title)
			if s.HasLiteralAnchor {
				a = s.LiteralAnchor
			}
			if _, taken := titleToBid[a]; taken {
				// P9 collision fallback: address this section by its
				// own Bref instead of the already-claimed anchor.
				a = s.Node.Bref().String()
			}
			titleToBid[a] = s.Node.Bid
		}
	}

	// Steps 2-4: link extraction/classification, key construction,
	// resolution attempt.
	if isMarkdown {
		for i, link := range md.Links() {
			r.resolveLink(file, relPath, homeNet, docNode, titleToBid, i, link, md, &res)
		}
	}

	// Step 6: write-back decision, delegated to the codec, which knows
	// whether its frontmatter or link text actually changed.
	rewritten, err := c.GenerateSource()
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, diagnostics.IoError{File: file, Cause: err})
		return res
	}
	res.Rewritten = rewritten
	res.Nodes = nodes
	res.Diagnostics = append(res.Diagnostics, c.Diagnostics()...)
	return res
}

// reconcileSections walks the heading stack that the markdown codec
// already discovered in document order, emitting a Section edge from
// each section to its nearest enclosing section (or the document root)
// with a monotonically increasing sort_key per parent.
func (r *Resolver) reconcileSections(homeNet valueobjects.Bid, docNode *entities.Node, md *markdown.Codec, res *Result) {
	type frame struct {
		bid   valueobjects.Bid
		level int
	}
	stack := []frame{{bid: docNode.Bid, level: 0}}
	sortKeys := map[valueobjects.Bid]int{}

	for _, s := range md.Sections() {
		for len(stack) > 1 && stack[len(stack)-1].level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].bid
		key := sortKeys[parent]
		sortKeys[parent] = key + 1
		edge := &entities.Edge{
			Source:  s.Node.Bid,
			Sink:    parent,
			Kind:    entities.EdgeSection,
			Payload: map[string]any{"sort_key": key},
			OwnedBy: entities.OwnedBySource,
		}
		if err := r.st.UpsertEdge(edge); err != nil {
			res.Diagnostics = append(res.Diagnostics, diagnostics.InvariantViolation{Kind: diagnostics.InvariantCycle, Detail: err.Error()})
			continue
		}
		stack = append(stack, frame{bid: s.Node.Bid, level: s.Level})
	}
}

func (r *Resolver) resolveLink(file, relPath string, homeNet valueobjects.Bid, docNode *entities.Node, titleToBid map[string]valueobjects.Bid, linkIdx int, link markdown.LinkOccurrence, md *markdown.Codec, res *Result) {
	title := ParseLinkTitle(link.RawTitle)
	target := ParseLinkTarget(link.RawTarget)

	var key valueobjects.NodeKey
	switch {
	case title.HasBref:
		key = valueobjects.BrefKey(title.Bref)
	case target.Path == "" && target.Anchor != "":
		// Same-document fragment link.
		if bid, ok := titleToBid[target.Anchor]; ok {
			r.emitEpistemic(docNode.Bid, bid, linkIdx, link.RawText, title, target, relPath, md, res)
			return
		}
		res.Diagnostics = append(res.Diagnostics, diagnostics.UnresolvedReference{
			File: file, SelfBid: docNode.Bid,
			Other:           valueobjects.TitleKey(homeNet, target.Anchor),
			RequiresRewrite: title.AutoTitle,
		})
		return
	default:
		normPath := filepath.ToSlash(filepath.Join(filepath.Dir(relPath), target.Path))
		key = valueobjects.PathKey(homeNet, normPath)
	}

	bid, ok := r.ix.Resolve(key)
	if !ok {
		res.Diagnostics = append(res.Diagnostics, diagnostics.UnresolvedReference{
			File: file, SelfBid: docNode.Bid, Other: key,
			RequiresRewrite: key.Kind == valueobjects.KeyPath || key.Kind == valueobjects.KeyTitle || title.AutoTitle,
		})
		return
	}
	r.emitEpistemic(docNode.Bid, bid, linkIdx, link.RawText, title, target, relPath, md, res)
}

// emitEpistemic records a citation edge from source to sink, and keeps
// the link converged on the sink's current state in every slot P8
// names: its display text (the bracketed portion) is refreshed to the
// sink's current title when the link carries auto_title, its path
// component is rewritten if the sink (or its owning document) has
// since moved, and its bref slot is stamped with the sink's Bref the
// first time the link resolves so the reference stays addressable by
// identity even if the path rewrite above is ever bypassed (spec §4.3,
// I-test P8). auto_title's own title-attribute words slot is left
// empty: the sink's title is carried by the display text, not
// duplicated into a second hidden slot.
func (r *Resolver) emitEpistemic(source, sink valueobjects.Bid, linkIdx int, rawText string, title LinkTitle, target LinkTarget, relPath string, md *markdown.Codec, res *Result) {
	edge := &entities.Edge{Source: source, Sink: sink, Kind: entities.EdgeEpistemic, AutoTitle: title.AutoTitle, OwnedBy: entities.OwnedBySource}
	if err := r.st.UpsertEdge(edge); err != nil {
		res.Diagnostics = append(res.Diagnostics, diagnostics.InvariantViolation{Kind: diagnostics.InvariantCycle, Detail: err.Error()})
		return
	}

	newTarget := target
	if target.Path != "" {
		if docPath, ok := r.st.DocumentPath(sink); ok {
			if rel, err := filepath.Rel(filepath.Dir(relPath), docPath); err == nil {
				newTarget.Path = filepath.ToSlash(rel)
			}
		}
	}

	newText := rawText
	newTitle := title
	if title.AutoTitle {
		newTitle.Words = ""
		if sinkNode, ok := r.st.Node(sink); ok {
			newText = sinkNode.Title
		}
	}
	if !newTitle.HasBref {
		newTitle.HasBref = true
		newTitle.Bref = sink.Bref()
	}

	md.RecordResolution(linkIdx, newText, newTarget.Render(), newTitle.Render())
}
