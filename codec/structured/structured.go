// Package structured implements the Codec contract for whole-file
// structured-data sources (standalone .yaml/.json/.toml files with no
// Markdown body): the entire file is the frontmatter, and the node has
// no sub-sections.
package structured

import (
	"fmt"

	"beliefgraph/codec"
	"beliefgraph/codec/frontmatter"
	"beliefgraph/diagnostics"
	"beliefgraph/domain/core/entities"
	"beliefgraph/domain/core/valueobjects"
)

// Codec implements codec.Codec for a single structured-data file parsed
// entirely as one set of fields, with format fixed by the file's
// extension (no fence, no body).
type Codec struct {
	format frontmatter.Format

	fields  map[string]any
	current *entities.Node

	docNode  *entities.Node
	finalDoc *entities.Node

	diags []diagnostics.Diagnostic
}

// NewFactory returns a codec.Factory for the structured-data format f
// (FormatYAML, FormatJSON, or FormatTOML).
func NewFactory(f frontmatter.Format) codec.Factory {
	return func() codec.Codec {
		return &Codec{format: f}
	}
}

// Parse implements codec.Codec.
func (c *Codec) Parse(content []byte, current *entities.Node) error {
	c.current = current
	fields, _, err := frontmatter.Parse(content, c.format)
	if err != nil {
		c.diags = append(c.diags, diagnostics.ParseWarning{Reason: "structured data: " + err.Error()})
		fields = map[string]any{}
	}
	c.fields = fields

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
		case "bid", "id", "title", "schema":
		default:
			c.docNode.Payload[k] = v
		}
	}
	return nil
}

// Nodes implements codec.Codec: a structured-data file contributes
// exactly one node, with no sub-sections.
func (c *Codec) Nodes() []*entities.Node {
	return []*entities.Node{c.docNode}
}

// InjectContext implements codec.Codec.
func (c *Codec) InjectContext(index int, ctx codec.ResolvedContext) *entities.Node {
	c.finalDoc = ctx.Node
	return ctx.Node
}

// GenerateSource implements codec.Codec: rewrites the file only when the
// bid was synthesized (it had none on parse) or an authored bid was
// replaced by identity reconciliation.
func (c *Codec) GenerateSource() ([]byte, error) {
	if c.docNode == nil {
		return nil, nil
	}
	if s, _ := c.fields["bid"].(string); s == c.docNode.Bid.String() {
		return nil, nil
	}
	fields := make(map[string]any, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields["bid"] = c.docNode.Bid.String()
	return frontmatter.Render(fields, c.format)
}

// Diagnostics implements codec.Codec.
func (c *Codec) Diagnostics() []diagnostics.Diagnostic { return c.diags }
