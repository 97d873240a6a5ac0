// Package emit serializes an IR bundle together with project metadata for
// the template layer.
package emit

import (
	"fmt"
	"io"
	"sort"

	"github.com/cloudflavor/skygen/pkg/ir"
)

// Emitter defines the interface for bundle writers
type Emitter interface {
	// Emit writes the project metadata and bundle to w
	Emit(w io.Writer, project Project, bundle *ir.Bundle) error
	// GetType returns the type identifier for this emitter (e.g., "json")
	GetType() string
}

// Document is the serialized form handed to the template layer
type Document struct {
	Project Project    `json:"project" yaml:"project"`
	IR      *ir.Bundle `json:"ir" yaml:"ir"`
}

// Registry manages available emitters
type Registry struct {
	emitters map[string]Emitter
}

// NewRegistry creates an empty emitter registry
func NewRegistry() *Registry {
	return &Registry{
		emitters: make(map[string]Emitter),
	}
}

// DefaultRegistry returns a registry holding the built-in emitters
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewJSONEmitter())
	r.Register(NewYAMLEmitter())
	return r
}

// Register adds an emitter to the registry
func (r *Registry) Register(e Emitter) {
	r.emitters[e.GetType()] = e
}

// Get retrieves an emitter by type
func (r *Registry) Get(emitType string) (Emitter, bool) {
	e, exists := r.emitters[emitType]
	return e, exists
}

// Lookup is like Get but fails with an error naming the known types
func (r *Registry) Lookup(emitType string) (Emitter, error) {
	e, ok := r.Get(emitType)
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s (available: %v)", emitType, r.GetAvailableTypes())
	}
	return e, nil
}

// GetAvailableTypes returns all registered emitter types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.emitters))
	for t := range r.emitters {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
