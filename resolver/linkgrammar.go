// Package resolver implements the Link Resolver & Source Rewriter
// (spec §4.3): the canonical link grammar, the per-node six-step
// resolution pipeline, and the frontmatter `sections` manifest
// read/rebuild.
package resolver

import (
	"encoding/json"
	"strings"

	"beliefgraph/domain/core/valueobjects"
)

// LinkTitle is the parsed form of a canonical link's title attribute:
//
//	title := words? config? bref?
//	words := arbitrary text (user title, if any)
//	config := "{" JSON "}"
//	bref := "bref://" 12-hex-digit
type LinkTitle struct {
	Words     string
	AutoTitle bool
	HasConfig bool
	Bref      valueobjects.Bref
	HasBref   bool
}

const brefPrefix = "bref://"

// ParseLinkTitle parses a CommonMark link title attribute into its
// words/config/bref slots. Any slot may be absent; an empty input
// yields a zero LinkTitle.
func ParseLinkTitle(raw string) LinkTitle {
	var lt LinkTitle
	rest := raw

	if idx := strings.Index(rest, brefPrefix); idx >= 0 {
		brefStr := strings.TrimSpace(rest[idx+len(brefPrefix):])
		if b, err := valueobjects.ParseBref(brefStr); err == nil {
			lt.Bref = b
			lt.HasBref = true
		}
		rest = rest[:idx]
	}

	rest = strings.TrimSpace(rest)
	if cfgStart := strings.IndexByte(rest, '{'); cfgStart >= 0 {
		cfgEnd := strings.LastIndexByte(rest, '}')
		if cfgEnd > cfgStart {
			var cfg struct {
				AutoTitle bool `json:"auto_title"`
			}
			if err := json.Unmarshal([]byte(rest[cfgStart:cfgEnd+1]), &cfg); err == nil {
				lt.AutoTitle = cfg.AutoTitle
				lt.HasConfig = true
			}
			rest = rest[:cfgStart]
		}
	}

	lt.Words = strings.TrimSpace(rest)
	return lt
}

// Render reassembles a LinkTitle into its canonical text form, omitting
// absent slots.
func (lt LinkTitle) Render() string {
	var parts []string
	if lt.Words != "" {
		parts = append(parts, lt.Words)
	}
	if lt.HasConfig || lt.AutoTitle {
		cfg, _ := json.Marshal(struct {
			AutoTitle bool `json:"auto_title"`
		}{AutoTitle: lt.AutoTitle})
		parts = append(parts, string(cfg))
	}
	if lt.HasBref {
		parts = append(parts, brefPrefix+lt.Bref.String())
	}
	return strings.Join(parts, " ")
}

// LinkTarget is a parsed Markdown link destination split into its path
// and optional same/other-document anchor.
type LinkTarget struct {
	Path   string // empty for a same-document fragment link
	Anchor string // without the leading '#'
}

// ParseLinkTarget splits a raw link destination of the form
// "path#anchor", "path", or "#anchor" into its parts.
func ParseLinkTarget(raw string) LinkTarget {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		return LinkTarget{Path: raw[:idx], Anchor: raw[idx+1:]}
	}
	return LinkTarget{Path: raw}
}

// Render reassembles a LinkTarget into its raw destination text.
func (lt LinkTarget) Render() string {
	if lt.Anchor == "" {
		return lt.Path
	}
	return lt.Path + "#" + lt.Anchor
}
