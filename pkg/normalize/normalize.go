// Package normalize turns raw OpenAPI bytes into a canonical value tree:
// JSON-like maps and slices with string keys, json.Number numbers and every
// numeric literal inside 64-bit bounds.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Format is the serialization of an input document
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "auto"
}

// ParseFormat maps a user supplied format name to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("unknown document format %q (valid: auto, json, yaml)", s)
}

// SniffFormat guesses the format from a file name, falling back to the
// first significant byte of the content.
func SniffFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Document is a normalized document. It is never modified after Normalize
// returns.
type Document struct {
	root map[string]any
	// Format is the syntax the document was parsed from
	Format Format
	// Salvaged is set when overflowing integer literals were rewritten
	Salvaged bool
}

// NewDocument wraps an already canonical tree
func NewDocument(root map[string]any) *Document {
	return &Document{root: root}
}

// Root returns the top-level mapping
func (d *Document) Root() map[string]any { return d.root }

// JSON serializes the canonical tree
func (d *Document) JSON() ([]byte, error) { return json.Marshal(d.root) }

// Normalizer parses documents. The zero value is ready to use.
type Normalizer struct {
	Logger *slog.Logger
}

// Normalize parses data with a zero Normalizer
func Normalize(data []byte, format Format) (*Document, error) {
	return (&Normalizer{}).Normalize(data, format)
}

// Normalize parses data as JSON, retrying once with overflowing integer
// literals clamped, then falls back to YAML with the same retry. Declaring
// FormatYAML skips the JSON attempt.
func (n *Normalizer) Normalize(data []byte, format Format) (*Document, error) {
	log := n.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var jsonErr error
	if format != FormatYAML {
		tree, salvaged, err := parseWithSalvage(data, decodeJSON)
		if err == nil {
			if salvaged {
				log.Warn("clamped overflowing integer literals", "format", "json")
			}
			return finish(tree, FormatJSON, salvaged)
		}
		jsonErr = err
		log.Debug("json parse failed, trying yaml", "error", err)
	}

	tree, salvaged, err := parseWithSalvage(data, decodeYAML)
	if err != nil {
		if jsonErr != nil && (format == FormatJSON || SniffFormat("", data) == FormatJSON) {
			return nil, jsonErr
		}
		return nil, err
	}
	if salvaged {
		log.Warn("clamped overflowing integer literals", "format", "yaml")
	}
	return finish(tree, FormatYAML, salvaged)
}

func parseWithSalvage(data []byte, decode func([]byte) (any, error)) (any, bool, error) {
	tree, err := decode(data)
	if err == nil {
		return tree, false, nil
	}
	fixed, changed := ClampOverflowingLiterals(string(data))
	if !changed {
		return nil, false, err
	}
	tree, retryErr := decode([]byte(fixed))
	if retryErr != nil {
		return nil, false, err
	}
	return tree, true, nil
}

func finish(tree any, format Format, salvaged bool) (*Document, error) {
	root, ok := tree.(map[string]any)
	if !ok {
		return nil, &ParseError{Err: errors.New("document root must be a mapping")}
	}
	FixNumbers(root)
	return &Document{root: root, Format: format, Salvaged: salvaged}, nil
}
