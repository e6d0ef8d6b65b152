// Package frontmatter splits a source file into its leading metadata
// block and body, and parses that block by trying YAML, then JSON,
// then TOML, in the priority order spec §6 mandates — the first format
// that parses without error wins.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies which syntax a frontmatter block was written in.
type Format int

const (
	FormatNone Format = iota
	FormatYAML
	FormatJSON
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	default:
		return "none"
	}
}

var fences = []struct {
	delim  string
	format Format
}{
	{"---", FormatYAML},
	{"+++", FormatTOML},
}

// Split separates a leading frontmatter fence from the document body. It
// returns (nil, body, FormatNone) when content has no recognized fence
// at all (a bare JSON object opening the file is also accepted, per the
// "json/jsn" synonym rule).
func Split(content []byte) (block []byte, body []byte, format Format) {
	trimmed := bytes.TrimLeft(content, "﻿ \t\r\n")
	leadingOffset := len(content) - len(trimmed)

	for _, f := range fences {
		prefix := f.delim + "\n"
		if !bytes.HasPrefix(trimmed, []byte(prefix)) {
			continue
		}
		rest := trimmed[len(prefix):]
		closeIdx := bytes.Index(rest, []byte("\n"+f.delim))
		if closeIdx < 0 {
			continue
		}
		block = rest[:closeIdx]
		afterClose := rest[closeIdx+len(f.delim)+1:]
		body = afterClose
		if len(body) > 0 && body[0] == '\n' {
			body = body[1:]
		}
		return block, body, f.format
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		var probe json.RawMessage
		if err := dec.Decode(&probe); err == nil {
			return probe, trimmed[dec.InputOffset():], FormatJSON
		}
	}

	return nil, content[leadingOffset:], FormatNone
}

// Parse decodes block (as returned by Split) into a generic field map,
// trying YAML, then JSON, then TOML. hint, if not FormatNone, is tried
// first since Split already identified the fence delimiter.
func Parse(block []byte, hint Format) (map[string]any, Format, error) {
	if len(bytes.TrimSpace(block)) == 0 {
		return map[string]any{}, FormatNone, nil
	}

	order := []Format{FormatYAML, FormatJSON, FormatTOML}
	if hint != FormatNone {
		order = append([]Format{hint}, order...)
	}

	var lastErr error
	tried := make(map[Format]bool)
	for _, f := range order {
		if tried[f] {
			continue
		}
		tried[f] = true
		fields, err := parseAs(block, f)
		if err == nil {
			return fields, f, nil
		}
		lastErr = err
	}
	return nil, FormatNone, lastErr
}

func parseAs(block []byte, f Format) (map[string]any, error) {
	fields := make(map[string]any)
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(block, &fields); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.Unmarshal(block, &fields); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(block, &fields); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("frontmatter: unknown format")
	}
	return fields, nil
}

// Render serializes fields back into the given format's fenced block
// text, without the surrounding fence delimiters (the caller wraps it).
func Render(fields map[string]any, f Format) ([]byte, error) {
	switch f {
	case FormatYAML, FormatNone:
		return yaml.Marshal(fields)
	case FormatJSON:
		return json.MarshalIndent(fields, "", "  ")
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(fields); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.New("frontmatter: unknown format")
	}
}

// Fence wraps a rendered block in the delimiter pair matching f.
func Fence(rendered []byte, f Format) []byte {
	var delim string
	switch f {
	case FormatTOML:
		delim = "+++"
	case FormatJSON:
		return append(bytes.TrimRight(rendered, "\n"), '\n')
	default:
		delim = "---"
	}
	var buf bytes.Buffer
	buf.WriteString(delim)
	buf.WriteByte('\n')
	buf.Write(bytes.TrimRight(rendered, "\n"))
	buf.WriteByte('\n')
	buf.WriteString(delim)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// ExtensionFormat maps a structured-data file's canonical extension
// (post-synonym-resolution) to its Format, for whole-file (non-Markdown)
// structured documents.
func ExtensionFormat(ext string) (Format, bool) {
	switch strings.ToLower(ext) {
	case "yaml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	case "toml":
		return FormatTOML, true
	default:
		return FormatNone, false
	}
}
