package resolver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-openapi/jsonpointer"

	"github.com/cloudflavor/skygen/pkg/normalize"
)

// DocumentResolver resolves references against the canonical value tree,
// including pointers below a component (#/components/schemas/A/properties/b).
type DocumentResolver struct {
	root     map[string]any
	maxDepth int
}

// NewDocumentResolver creates a resolver; maxDepth <= 0 means unlimited
func NewDocumentResolver(doc *normalize.Document, maxDepth int) *DocumentResolver {
	return &DocumentResolver{root: doc.Root(), maxDepth: maxDepth}
}

// Lookup returns the object a reference points to, without following
// further references inside it.
func (r *DocumentResolver) Lookup(ref string) (map[string]any, error) {
	p, err := ParsePointer(ref)
	if err != nil {
		return nil, err
	}
	ptr, err := jsonpointer.New(p.JSONPointer())
	if err != nil {
		return nil, newError(ErrInvalidRef, ref, err.Error())
	}
	v, _, err := ptr.Get(r.root)
	if err != nil || v == nil {
		return nil, newError(ErrMissingTarget, ref, "")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, newError(ErrTypeMismatch, ref, fmt.Sprintf("found %T, want object", v))
	}
	return obj, nil
}

// ResolveRef returns a copy of the target of ref with every nested
// reference inlined. Any cycle fails with ErrCycleDetected.
func (r *DocumentResolver) ResolveRef(ref string) (any, error) {
	return r.inline(map[string]any{"$ref": ref}, NewGuard(r.maxDepth), false)
}

// Resolve returns a copy of the whole document with every reference
// inlined. A reference back into a component that is still being inlined
// is left in place, so recursive schemas stay finite. Broken references
// and alias cycles fail as in Check.
func (r *DocumentResolver) Resolve() (map[string]any, error) {
	if err := r.Check(); err != nil {
		return nil, err
	}
	g := NewGuard(r.maxDepth)
	out := make(map[string]any, len(r.root))
	for k, v := range r.root {
		var (
			resolved any
			err      error
		)
		if k == "components" {
			resolved, err = r.components(v, g)
		} else {
			resolved, err = r.inline(v, g, true)
		}
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

// Check verifies that every reference in the document parses and points
// at an object, and that no chain of alias references loops. Recursion
// through properties or items is legal and not followed.
func (r *DocumentResolver) Check() error {
	return r.check(r.root)
}

func (r *DocumentResolver) check(v any) error {
	switch t := v.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			if err := r.followAliases(ref); err != nil {
				return err
			}
		}
		for _, k := range sortedKeys(t) {
			if err := r.check(t[k]); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range t {
			if err := r.check(child); err != nil {
				return err
			}
		}
	}
	return nil
}

// followAliases walks ref → target → target's own $ref until a target
// carries content of its own
func (r *DocumentResolver) followAliases(ref string) error {
	g := NewGuard(r.maxDepth)
	for {
		if err := g.Enter(ref); err != nil {
			return err
		}
		target, err := r.Lookup(ref)
		if err != nil {
			return err
		}
		next, ok := target["$ref"].(string)
		if !ok {
			return nil
		}
		ref = next
	}
}

// components inlines each component while holding its own reference in
// flight, so self references inside it are back-edges
func (r *DocumentResolver) components(v any, g *Guard) (any, error) {
	sections, ok := v.(map[string]any)
	if !ok {
		return r.inline(v, g, true)
	}
	out := make(map[string]any, len(sections))
	for section, sv := range sections {
		entries, ok := sv.(map[string]any)
		if !ok {
			resolved, err := r.inline(sv, g, true)
			if err != nil {
				return nil, err
			}
			out[section] = resolved
			continue
		}
		resolvedEntries := make(map[string]any, len(entries))
		for name, node := range entries {
			ref := ComponentRef(Section(section), name)
			if err := g.Enter(ref); err != nil {
				return nil, err
			}
			resolved, err := r.inline(node, g, true)
			g.Exit(ref)
			if err != nil {
				return nil, err
			}
			resolvedEntries[name] = resolved
		}
		out[section] = resolvedEntries
	}
	return out, nil
}

func (r *DocumentResolver) inline(v any, g *Guard, keepBackEdges bool) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			if err := g.Enter(ref); err != nil {
				if keepBackEdges && errors.Is(err, ErrCycleDetected) {
					return map[string]any{"$ref": ref}, nil
				}
				return nil, err
			}
			defer g.Exit(ref)
			target, err := r.Lookup(ref)
			if err != nil {
				return nil, err
			}
			return r.inline(target, g, keepBackEdges)
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			resolved, err := r.inline(child, g, keepBackEdges)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			resolved, err := r.inline(child, g, keepBackEdges)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	}
	return v, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
