package infer

import (
	"slices"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/ir"
)

// Field is a property of a struct-shaped schema
type Field struct {
	Name     string
	Type     ir.ParamType
	Required bool
	Nullable bool
}

// Fields lists the properties declared directly on s, sorted by name
func (i *Inferencer) Fields(s *openapi3.Schema) []Field {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Field, 0, len(names))
	for _, name := range names {
		prop := s.Properties[name]
		out = append(out, Field{
			Name:     name,
			Type:     i.Infer(prop),
			Required: slices.Contains(s.Required, name),
			Nullable: prop != nil && prop.Value != nil && prop.Value.Nullable,
		})
	}
	return out
}

// MergeFields unions the field sets of several allOf branches. A field
// whose type differs between branches becomes Unknown; it is required only
// if every branch mentioning it requires it. The result is sorted by name.
func MergeFields(branches ...[]Field) []Field {
	merged := map[string]*Field{}
	for _, branch := range branches {
		for _, f := range branch {
			cur, ok := merged[f.Name]
			if !ok {
				cp := f
				merged[f.Name] = &cp
				continue
			}
			if !cur.Type.Equal(f.Type) {
				cur.Type = ir.Unknown
			}
			cur.Required = cur.Required && f.Required
			cur.Nullable = cur.Nullable || f.Nullable
		}
	}

	out := make([]Field, 0, len(merged))
	for _, f := range merged {
		out = append(out, *f)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
