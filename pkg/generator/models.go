package generator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/generator/rust"
	"github.com/cloudflavor/skygen/pkg/infer"
	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/naming"
	"github.com/cloudflavor/skygen/pkg/resolver"
)

// BuildModuleMap assigns every component schema a module slug. Names are
// visited in lexical order and a slug that is already taken gets a _2, _3,
// ... suffix, so the assignment only depends on the set of names.
func BuildModuleMap(schemas openapi3.Schemas) *ir.ModuleMap {
	names := sortedSchemaNames(schemas)
	slugs := make(map[string]string, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, name := range names {
		base := naming.SanitizeModuleName(name)
		slug := base
		for n := 2; ; n++ {
			if _, ok := taken[slug]; !ok {
				break
			}
			slug = fmt.Sprintf("%s_%d", base, n)
		}
		taken[slug] = struct{}{}
		slugs[name] = slug
	}
	return ir.NewModuleMap(slugs)
}

func sortedSchemaNames(schemas openapi3.Schemas) []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModelSynthesizer turns named component schemas into models. It only
// reads the document and the frozen module map, so one synthesizer may
// serve several goroutines.
type ModelSynthesizer struct {
	schemas    openapi3.Schemas
	components *resolver.Components
	infer      *infer.Inferencer
	renderer   *rust.Renderer
	modules    *ir.ModuleMap
	maxDepth   int
}

// NewModelSynthesizer creates a synthesizer for the schemas of doc
func NewModelSynthesizer(doc *openapi3.T, modules *ir.ModuleMap, inf *infer.Inferencer, maxDepth int) *ModelSynthesizer {
	var schemas openapi3.Schemas
	if doc.Components != nil {
		schemas = doc.Components.Schemas
	}
	if inf == nil {
		inf = infer.New()
	}
	return &ModelSynthesizer{
		schemas:    schemas,
		components: resolver.NewComponents(doc.Components),
		infer:      inf,
		renderer:   rust.NewRenderer(modules),
		modules:    modules,
		maxDepth:   maxDepth,
	}
}

// Names returns the schema names in the order models are produced
func (m *ModelSynthesizer) Names() []string { return sortedSchemaNames(m.schemas) }

// Model synthesizes the model for one schema name. A schema declaring
// properties, directly or through allOf, becomes a struct; anything else
// an alias. Reference cycles and malformed references are errors; a
// reference to a missing component degrades to the untyped value.
func (m *ModelSynthesizer) Model(name string) (ir.ModelIR, []string, error) {
	sr := m.schemas[name]
	if sr == nil {
		return ir.ModelIR{}, nil, fmt.Errorf("model %s: %w", name, resolver.ErrMissingTarget)
	}
	slug, ok := m.modules.Slug(name)
	if !ok {
		slug = naming.SanitizeModuleName(name)
	}

	b := &modelBuilder{
		ModelSynthesizer: m,
		name:             name,
		guard:            resolver.NewGuard(m.maxDepth),
	}
	model := ir.ModelIR{Module: slug, Struct: naming.SanitizeStructName(name)}

	self := resolver.ComponentRef(resolver.SectionSchemas, name)
	if err := b.guard.Enter(self); err != nil {
		return ir.ModelIR{}, nil, fmt.Errorf("model %s: %w", name, err)
	}
	defer b.guard.Exit(self)

	var err error
	switch {
	case sr.Ref != "":
		model.Kind = ir.ModelAlias
		model.Alias, err = b.refAlias(sr.Ref)
	case sr.Value == nil:
		model.Kind = ir.ModelAlias
		model.Alias = rust.UntypedValue
	default:
		var isStruct bool
		isStruct, err = b.hasProperties(sr.Value)
		if err != nil {
			break
		}
		if isStruct {
			model.Kind = ir.ModelStruct
			model.Fields, err = b.fields(sr.Value)
		} else {
			model.Kind = ir.ModelAlias
			model.Alias, err = b.alias(sr.Value)
		}
	}
	if err != nil {
		return ir.ModelIR{}, nil, fmt.Errorf("model %s: %w", name, err)
	}
	return model, b.warnings, nil
}

// modelBuilder carries the state of one Model call
type modelBuilder struct {
	*ModelSynthesizer
	name     string
	guard    *resolver.Guard
	warnings []string
}

func (b *modelBuilder) render(t ir.ParamType) string {
	for _, missing := range b.renderer.Dangling(t) {
		b.warnings = append(b.warnings, fmt.Sprintf("model %s: no model for %q, using %s", b.name, missing, rust.UntypedValue))
	}
	return b.renderer.Render(t)
}

// target follows ref to an inline schema. A missing target is reported as
// nil without error.
func (b *modelBuilder) target(ref string) (*openapi3.Schema, string, error) {
	s, name, err := b.components.SchemaChain(ref, b.guard)
	if errors.Is(err, resolver.ErrMissingTarget) {
		b.warnings = append(b.warnings, fmt.Sprintf("model %s: %v", b.name, err))
		return nil, "", nil
	}
	return s, name, err
}

// within runs fn with the component name in flight on the guard
func (b *modelBuilder) within(name string, fn func() error) error {
	ref := resolver.ComponentRef(resolver.SectionSchemas, name)
	if err := b.guard.Enter(ref); err != nil {
		return err
	}
	defer b.guard.Exit(ref)
	return fn()
}

func (b *modelBuilder) hasProperties(s *openapi3.Schema) (bool, error) {
	if len(s.Properties) > 0 {
		return true, nil
	}
	for _, branch := range s.AllOf {
		if branch == nil {
			continue
		}
		if branch.Ref == "" {
			if branch.Value == nil {
				continue
			}
			found, err := b.hasProperties(branch.Value)
			if err != nil || found {
				return found, err
			}
			continue
		}

		target, tname, err := b.target(branch.Ref)
		if err != nil {
			return false, err
		}
		if target == nil {
			continue
		}
		var found bool
		err = b.within(tname, func() error {
			var err error
			found, err = b.hasProperties(target)
			return err
		})
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

func (b *modelBuilder) fields(s *openapi3.Schema) ([]ir.FieldIR, error) {
	var branches [][]infer.Field
	flattened := map[string]struct{}{}
	if err := b.collect(s, &branches, flattened); err != nil {
		return nil, err
	}

	merged := infer.MergeFields(branches...)
	out := make([]ir.FieldIR, 0, len(merged)+len(flattened))
	for _, f := range merged {
		t := f.Type
		if !f.Required || f.Nullable {
			t = ir.Optional(t)
		}
		out = append(out, ir.FieldIR{
			Name:     naming.SanitizeFieldName(f.Name),
			Wire:     f.Name,
			Type:     b.render(t),
			Required: f.Required,
		})
	}
	for name := range flattened {
		out = append(out, ir.FieldIR{
			Name:     naming.SanitizeFieldName(name),
			Wire:     name,
			Type:     b.render(ir.Object(name)),
			Required: true,
			Flatten:  true,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Wire < out[j].Wire
	})
	dedupeFieldNames(out)
	return out, nil
}

// collect gathers the field sets of s and its inline allOf branches.
// Referenced branches that are structs themselves are recorded for
// flattening instead.
func (b *modelBuilder) collect(s *openapi3.Schema, branches *[][]infer.Field, flattened map[string]struct{}) error {
	if own := b.infer.Fields(s); len(own) > 0 {
		*branches = append(*branches, own)
	}
	for _, branch := range s.AllOf {
		if branch == nil {
			continue
		}
		if branch.Ref == "" {
			if branch.Value == nil {
				continue
			}
			if err := b.collect(branch.Value, branches, flattened); err != nil {
				return err
			}
			continue
		}

		target, tname, err := b.target(branch.Ref)
		if err != nil {
			return err
		}
		if target == nil {
			continue
		}
		var isStruct bool
		err = b.within(tname, func() error {
			var err error
			isStruct, err = b.hasProperties(target)
			return err
		})
		if err != nil {
			return err
		}
		if isStruct {
			flattened[tname] = struct{}{}
		}
	}
	return nil
}

// dedupeFieldNames suffixes field identifiers that sanitize to the same
// name, such as fooBar and foo_bar
func dedupeFieldNames(fields []ir.FieldIR) {
	seen := make(map[string]struct{}, len(fields))
	for i := range fields {
		name := fields[i].Name
		for n := 2; ; n++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", fields[i].Name, n)
		}
		seen[name] = struct{}{}
		fields[i].Name = name
	}
}

func (b *modelBuilder) refAlias(ref string) (string, error) {
	_, tname, err := b.target(ref)
	if err != nil {
		return "", err
	}
	if tname == "" {
		return rust.UntypedValue, nil
	}
	return b.render(ir.Object(tname)), nil
}

func (b *modelBuilder) alias(s *openapi3.Schema) (string, error) {
	ap := s.AdditionalProperties
	switch {
	case ap.Schema != nil:
		return b.render(ir.Map(b.infer.Infer(ap.Schema))), nil
	case ap.Has != nil && *ap.Has:
		return b.render(ir.Map(ir.Unknown)), nil
	case len(s.AllOf) > 0:
		return b.allOfAlias(s.AllOf)
	}

	t := b.infer.InferSchema(s)
	switch t.Kind {
	case ir.KindMap:
		// an object without properties or additionalProperties
		return rust.UntypedValue, nil
	case ir.KindObject:
		if t.Name == s.Title {
			return rust.UntypedValue, nil
		}
	}
	return b.render(t), nil
}

// allOfAlias aliases the first branch that resolves to a type
func (b *modelBuilder) allOfAlias(parts openapi3.SchemaRefs) (string, error) {
	for idx, part := range parts {
		if part == nil || (b.infer.Skip.Matches(part) && idx+1 < len(parts)) {
			continue
		}
		if part.Ref != "" {
			_, tname, err := b.target(part.Ref)
			if err != nil {
				return "", err
			}
			if tname == "" {
				continue
			}
			return b.render(ir.Object(tname)), nil
		}
		if part.Value == nil {
			continue
		}
		if t := b.infer.InferSchema(part.Value); !t.IsUnknown() && t.Kind != ir.KindMap {
			return b.render(t), nil
		}
	}
	return rust.UntypedValue, nil
}
