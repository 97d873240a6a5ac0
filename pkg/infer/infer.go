// Package infer maps OpenAPI schema nodes onto ir.ParamType.
package infer

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/resolver"
)

// SkipList holds component names whose references are treated as empty
// placeholders when scanning composition branches.
type SkipList map[string]struct{}

// NewSkipList builds a skip list from component names
func NewSkipList(names ...string) SkipList {
	s := make(SkipList, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Matches reports whether sr references a placeholder component
func (s SkipList) Matches(sr *openapi3.SchemaRef) bool {
	if len(s) == 0 || sr == nil || sr.Ref == "" {
		return false
	}
	_, ok := s[resolver.RefName(sr.Ref)]
	return ok
}

// Inferencer maps schemas to abstract types. It never resolves references:
// a reference binds to Object(name) and the name is looked up when the
// type is rendered.
type Inferencer struct {
	Skip SkipList
}

// New creates an inferencer skipping the given placeholder components
func New(skip ...string) *Inferencer {
	return &Inferencer{Skip: NewSkipList(skip...)}
}

// Infer returns the type of a schema or reference
func (i *Inferencer) Infer(sr *openapi3.SchemaRef) ir.ParamType {
	if sr == nil {
		return ir.Unknown
	}
	if sr.Ref != "" {
		return ir.Object(resolver.RefName(sr.Ref))
	}
	return i.InferSchema(sr.Value)
}

// InferSchema returns the type of an inline schema
func (i *Inferencer) InferSchema(s *openapi3.Schema) ir.ParamType {
	if s == nil {
		return ir.Unknown
	}

	switch primaryType(s) {
	case openapi3.TypeString:
		if len(s.Enum) > 0 {
			return ir.Enum(enumValues(s.Enum))
		}
		return ir.String
	case openapi3.TypeInteger:
		return ir.Integer
	case openapi3.TypeNumber:
		return ir.Float
	case openapi3.TypeBoolean:
		return ir.Boolean
	case openapi3.TypeArray:
		if s.Items == nil {
			return ir.Array(ir.Unknown)
		}
		return ir.Array(i.Infer(s.Items))
	case openapi3.TypeObject:
		return objectType(s)
	}

	// untyped: compositions first, then shape
	for _, parts := range []openapi3.SchemaRefs{s.AllOf, s.OneOf, s.AnyOf} {
		if t := i.Composed(parts); !t.IsUnknown() {
			return t
		}
	}
	if s.Title != "" {
		return ir.Object(s.Title)
	}
	if len(s.Properties) > 0 || hasAdditionalProperties(s) {
		return ir.Map(ir.Unknown)
	}
	return ir.Unknown
}

// Composed scans composition branches left to right and returns the first
// type that is not Unknown. A placeholder branch is skipped unless it is
// the last one.
func (i *Inferencer) Composed(parts openapi3.SchemaRefs) ir.ParamType {
	for idx, part := range parts {
		if i.Skip.Matches(part) && idx+1 < len(parts) {
			continue
		}
		if t := i.Infer(part); !t.IsUnknown() {
			return t
		}
	}
	return ir.Unknown
}

func objectType(s *openapi3.Schema) ir.ParamType {
	if s.Title != "" {
		return ir.Object(s.Title)
	}
	return ir.Map(ir.Unknown)
}

// primaryType returns the first declared type other than null
func primaryType(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	for _, t := range *s.Type {
		if t != "null" {
			return t
		}
	}
	return ""
}

func hasAdditionalProperties(s *openapi3.Schema) bool {
	ap := s.AdditionalProperties
	return ap.Schema != nil || (ap.Has != nil && *ap.Has)
}

func enumValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}
