package emit

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cloudflavor/skygen/pkg/ir"
)

// YAMLEmitter writes the document as YAML
type YAMLEmitter struct {
	Indent int
}

// NewYAMLEmitter creates a YAML emitter indenting with two spaces
func NewYAMLEmitter() *YAMLEmitter {
	return &YAMLEmitter{Indent: 2}
}

// GetType returns "yaml"
func (e *YAMLEmitter) GetType() string { return "yaml" }

// Emit writes the document
func (e *YAMLEmitter) Emit(w io.Writer, project Project, bundle *ir.Bundle) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(e.Indent)
	if err := enc.Encode(Document{Project: project, IR: bundle}); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
