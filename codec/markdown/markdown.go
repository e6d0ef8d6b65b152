// Package markdown implements the Codec contract for Markdown source
// files: frontmatter extraction, heading/link discovery via goldmark,
// and canonical-link-grammar write-back.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"beliefgraph/codec"
	"beliefgraph/codec/frontmatter"
	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// LinkOccurrence is one Markdown inline link found in the document body,
// owned by the section (or the document root) whose prose contains it.
type LinkOccurrence struct {
	OwnerIndex int // index into Codec.sections, or -1 for the document root
	RawText    string
	RawTarget  string
	RawTitle   string

	// resolved by the resolver, used by GenerateSource to rewrite the
	// link in place.
	rewrittenText   string
	rewrittenTarget string
	rewrittenTitle  string
	rewrite         bool
}

// SectionInfo is one heading-derived node, carrying the structural
// information the resolver needs to run the section-stack reconciliation
// (spec §4.3 step 5) that this codec does not perform itself — it only
// reports heading levels and document order, since the bid/title stack
// used to emit Section edges is shared state across the whole document
// tree the resolver owns.
type SectionInfo struct {
	Node             *entities.Node
	Level            int
	LiteralAnchor    string
	HasLiteralAnchor bool
}

// Codec implements codec.Codec for ".md"/".markdown" files.
type Codec struct {
	md goldmark.Markdown

	source      []byte
	frontFormat frontmatter.Format
	frontFields map[string]any
	body        []byte
	bodyOffset  int // byte offset of body within source, for rewriting

	current *entities.Node

	docNode  *entities.Node
	sections []SectionInfo
	links    []LinkOccurrence

	diags []diagnostics.Diagnostic

	finalDocNode  *entities.Node
	finalSections []*entities.Node
}

// NewFactory returns a codec.Factory producing fresh markdown Codecs.
func NewFactory() codec.Factory {
	return func() codec.Codec {
		return &Codec{
			md: goldmark.New(goldmark.WithParserOptions(parser.WithAttribute())),
		}
	}
}

// Parse implements codec.Codec.
func (c *Codec) Parse(content []byte, current *entities.Node) error {
	c.source = content
	c.current = current

	block, body, format := frontmatter.Split(content)
	c.bodyOffset = len(content) - len(body)
	c.body = body
	c.frontFormat = format

	fields, parsedFormat, err := frontmatter.Parse(block, format)
	if err != nil {
		c.diags = append(c.diags, diagnostics.ParseWarning{Reason: "frontmatter: " + err.Error()})
		fields = map[string]any{}
	} else if format == frontmatter.FormatNone && len(block) > 0 {
		c.frontFormat = parsedFormat
	}
	c.frontFields = fields

	title, _ := fields["title"].(string)
	if title == "" {
		title = fmt.Sprintf("%v", fields["id"])
	}
	c.docNode = &entities.Node{Kind: entities.KindDocument, Title: title, Payload: map[string]any{}}
	if bidStr, ok := fields["bid"].(string); ok && bidStr != "" {
		if b, err := valueobjects.ParseBid(bidStr); err == nil {
			c.docNode.Bid = b
		}
	}
	if idStr, ok := fields["id"].(string); ok {
		c.docNode.ID = idStr
	}
	if schema, ok := fields["schema"].(string); ok {
		c.docNode.Schema = schema
	}
	for k, v := range fields {
		switch k {
		case "bid", "id", "title", "schema", "sections":
		default:
			c.docNode.Payload[k] = v
		}
	}

	doc := c.md.Parser().Parse(text.NewReader(c.body))
	c.walk(doc)
	return nil
}

// walk collects heading sections and inline links in document order.
func (c *Codec) walk(doc ast.Node) {
	type stackEntry struct {
		idx   int // index into c.sections, or -1 for document root
		level int
	}
	stack := []stackEntry{{idx: -1, level: 0}}
	currentOwner := -1

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			h := n.(*ast.Heading)
			heading := c.headingText(h)
			literalAnchor, hasLiteral := headingAttr(h)

			for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			node := &entities.Node{Kind: entities.KindSection, Title: heading, Payload: map[string]any{}}
			c.sections = append(c.sections, SectionInfo{Node: node, Level: h.Level, LiteralAnchor: literalAnchor, HasLiteralAnchor: hasLiteral})
			idx := len(c.sections) - 1
			stack = append(stack, stackEntry{idx: idx, level: h.Level})
			currentOwner = idx

		case ast.KindLink:
			l := n.(*ast.Link)
			c.links = append(c.links, LinkOccurrence{
				OwnerIndex: currentOwner,
				RawText:    c.linkText(l),
				RawTarget:  string(l.Destination),
				RawTitle:   string(l.Title),
			})
		}
		return ast.WalkContinue, nil
	})
}

func (c *Codec) headingText(h *ast.Heading) string { return c.plainText(h) }

// linkText returns a link's display text. Like headingText, nested
// inline formatting is not reconstructed, only the literal text run.
func (c *Codec) linkText(l *ast.Link) string { return c.plainText(l) }

// plainText concatenates n's direct Text children.
func (c *Codec) plainText(n ast.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(c.body))
		}
	}
	return buf.String()
}

func headingAttr(h *ast.Heading) (string, bool) {
	if v, ok := h.AttributeString("id"); ok {
		if s, ok := v.([]byte); ok {
			return string(s), true
		}
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Nodes implements codec.Codec.
func (c *Codec) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, 1+len(c.sections))
	nodes = append(nodes, c.docNode)
	for _, s := range c.sections {
		nodes = append(nodes, s.Node)
	}
	return nodes
}

// Sections exposes the heading-derived structural metadata the resolver
// needs for section-stack reconciliation; index 0 of Nodes() is always
// the document root and is not included here.
func (c *Codec) Sections() []SectionInfo { return c.sections }

// Links exposes the inline links discovered in the document body.
func (c *Codec) Links() []LinkOccurrence { return c.links }

// RecordResolution is called by the resolver once a link occurrence has
// been resolved, so GenerateSource can rewrite it in place. newText is
// the link's display text (the bracketed portion), which auto_title
// links keep converged on the sink's current title; a non-auto_title
// link always passes its own RawText back unchanged.
func (c *Codec) RecordResolution(linkIdx int, newText, newTarget, newTitle string) {
	if linkIdx < 0 || linkIdx >= len(c.links) {
		return
	}
	l := &c.links[linkIdx]
	if newText != l.RawText || newTarget != l.RawTarget || newTitle != l.RawTitle {
		l.rewrittenText = newText
		l.rewrittenTarget = newTarget
		l.rewrittenTitle = newTitle
		l.rewrite = true
	}
}

// InjectContext implements codec.Codec. index 0 refers to the document
// node; index-1 indexes into Sections() for everything after. The
// passed-in node (already carrying its resolved Bid) is recorded
// verbatim and returned, since Markdown sections are never suppressed.
func (c *Codec) InjectContext(index int, ctx codec.ResolvedContext) *entities.Node {
	if index == 0 {
		c.finalDocNode = ctx.Node
		return ctx.Node
	}
	for len(c.finalSections) <= index-1 {
		c.finalSections = append(c.finalSections, nil)
	}
	c.finalSections[index-1] = ctx.Node
	return ctx.Node
}

// GenerateSource implements codec.Codec: rewrites frontmatter (bid
// injection, sections manifest) and any resolved link occurrences.
func (c *Codec) GenerateSource() ([]byte, error) {
	needsRewrite := false

	fields := make(map[string]any, len(c.frontFields))
	for k, v := range c.frontFields {
		fields[k] = v
	}
	if c.docNode != nil {
		if fields["bid"] != c.docNode.Bid.String() {
			fields["bid"] = c.docNode.Bid.String()
			needsRewrite = true
		}
		if c.docNode.ID != "" {
			fields["id"] = c.docNode.ID
		}
		if c.docNode.Schema != "" {
			fields["schema"] = c.docNode.Schema
		}
	}

	sectionsManifest := make(map[string]any)
	claimed := make(map[string]bool)
	for _, s := range c.sections {
		anchor := valueobjects.NormalizeTitle(s.Node.Title)
		if s.HasLiteralAnchor {
			anchor = s.LiteralAnchor
		}
		if claimed[anchor] {
			// P9 collision fallback: a second section sharing the same
			// anchor is addressed by its own Bref instead.
			anchor = s.Node.Bref().String()
		}
		claimed[anchor] = true
		entry := map[string]any{"bid": s.Node.Bid.String()}
		if s.Node.Schema != "" {
			entry["schema"] = s.Node.Schema
		}
		sectionsManifest[anchor] = entry
	}
	if len(sectionsManifest) > 0 {
		fields["sections"] = sectionsManifest
		needsRewrite = true
	}

	body := c.body
	for _, l := range c.links {
		if l.rewrite {
			needsRewrite = true
		}
	}
	if needsRewrite {
		body = c.rewriteLinks(body)
	}

	format := c.frontFormat
	if format == frontmatter.FormatNone {
		format = frontmatter.FormatYAML
	}

	if !needsRewrite {
		return nil, nil
	}

	rendered, err := frontmatter.Render(fields, format)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Write(frontmatter.Fence(rendered, format))
	out.Write(body)
	return out.Bytes(), nil
}

// rewriteLinks performs a simple sequential find-and-replace: for each
// resolved link, in document order, the first remaining occurrence of
// its original `[text](target "title")` span is replaced with the
// rewritten span. Matching is textual; no byte offsets are kept.
func (c *Codec) rewriteLinks(body []byte) []byte {
	out := body
	for _, l := range c.links {
		if !l.rewrite {
			continue
		}
		oldForm := fmt.Sprintf("[%s](%s%s)", l.RawText, l.RawTarget, titleSuffix(l.RawTitle))
		newForm := fmt.Sprintf("[%s](%s%s)", l.rewrittenText, l.rewrittenTarget, titleSuffix(l.rewrittenTitle))
		out = bytes.Replace(out, []byte(oldForm), []byte(newForm), 1)
	}
	return out
}

func titleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return fmt.Sprintf(" %q", title)
}

// Diagnostics implements codec.Codec.
func (c *Codec) Diagnostics() []diagnostics.Diagnostic { return c.diags }
