package emit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloudflavor/skygen/pkg/ir"
)

// JSONEmitter writes the document as indented JSON
type JSONEmitter struct {
	Indent string
}

// NewJSONEmitter creates a JSON emitter indenting with two spaces
func NewJSONEmitter() *JSONEmitter {
	return &JSONEmitter{Indent: "  "}
}

// GetType returns "json"
func (e *JSONEmitter) GetType() string { return "json" }

// Emit writes the document
func (e *JSONEmitter) Emit(w io.Writer, project Project, bundle *ir.Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", e.Indent)
	if err := enc.Encode(Document{Project: project, IR: bundle}); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
