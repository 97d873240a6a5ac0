// Package rust renders abstract parameter types as Rust type expressions.
package rust

import (
	"fmt"

	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/naming"
)

// UntypedValue is emitted wherever no concrete type is known
const UntypedValue = "serde_json::Value"

// Renderer turns ParamTypes into Rust type strings. Object names are
// resolved against a frozen module map; names outside of it degrade to
// UntypedValue.
type Renderer struct {
	modules *ir.ModuleMap
}

// NewRenderer creates a renderer bound to the given module map
func NewRenderer(modules *ir.ModuleMap) *Renderer {
	return &Renderer{modules: modules}
}

// Render returns the Rust type for t
func (r *Renderer) Render(t ir.ParamType) string {
	switch t.Kind {
	case ir.KindString, ir.KindEnum:
		return "String"
	case ir.KindInteger:
		return "i64"
	case ir.KindFloat:
		return "f64"
	case ir.KindBoolean:
		return "bool"
	case ir.KindArray:
		return fmt.Sprintf("Vec<%s>", r.elem(t))
	case ir.KindMap:
		return fmt.Sprintf("std::collections::BTreeMap<String, %s>", r.elem(t))
	case ir.KindOptional:
		return fmt.Sprintf("Option<%s>", r.elem(t))
	case ir.KindObject:
		slug, ok := r.Module(t.Name)
		if !ok {
			return UntypedValue
		}
		return fmt.Sprintf("crate::models::%s::%s", slug, naming.SanitizeStructName(t.Name))
	default:
		return UntypedValue
	}
}

func (r *Renderer) elem(t ir.ParamType) string {
	if t.Elem == nil {
		return UntypedValue
	}
	return r.Render(*t.Elem)
}

// Module returns the slug of the model a name refers to. The raw name is
// tried first, then its sanitized form.
func (r *Renderer) Module(name string) (string, bool) {
	if slug, ok := r.modules.Slug(name); ok {
		return slug, true
	}
	slug := naming.SanitizeModuleName(name)
	return slug, r.modules.Contains(slug)
}

// Dangling lists the object names inside t that have no model
func (r *Renderer) Dangling(t ir.ParamType) []string {
	var out []string
	var walk func(ir.ParamType)
	walk = func(t ir.ParamType) {
		switch t.Kind {
		case ir.KindObject:
			if _, ok := r.Module(t.Name); !ok {
				out = append(out, t.Name)
			}
		case ir.KindArray, ir.KindMap, ir.KindOptional:
			if t.Elem != nil {
				walk(*t.Elem)
			}
		}
	}
	walk(t)
	return out
}
