package resolver

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Components resolves references one level deep against a document's
// component sections. A lookup returns nil when the reference is malformed,
// points into another section, is absent or names an entry that is itself
// a reference; longer chains are followed by callers (see SchemaChain).
type Components struct {
	c *openapi3.Components
}

// NewComponents wraps c, which may be nil
func NewComponents(c *openapi3.Components) *Components {
	if c == nil {
		c = &openapi3.Components{}
	}
	return &Components{c: c}
}

func lookupName(ref string, section Section) (string, bool) {
	p, err := ParsePointer(ref)
	if err != nil || p.Section != section || len(p.Rest) > 0 {
		return "", false
	}
	return p.Name, true
}

// Schema resolves a #/components/schemas/ reference
func (r *Components) Schema(ref string) *openapi3.Schema {
	name, ok := lookupName(ref, SectionSchemas)
	if !ok {
		return nil
	}
	sr := r.c.Schemas[name]
	if sr == nil || sr.Ref != "" {
		return nil
	}
	return sr.Value
}

// Response resolves a #/components/responses/ reference
func (r *Components) Response(ref string) *openapi3.Response {
	name, ok := lookupName(ref, SectionResponses)
	if !ok {
		return nil
	}
	rr := r.c.Responses[name]
	if rr == nil || rr.Ref != "" {
		return nil
	}
	return rr.Value
}

// RequestBody resolves a #/components/requestBodies/ reference
func (r *Components) RequestBody(ref string) *openapi3.RequestBody {
	name, ok := lookupName(ref, SectionRequestBodies)
	if !ok {
		return nil
	}
	rb := r.c.RequestBodies[name]
	if rb == nil || rb.Ref != "" {
		return nil
	}
	return rb.Value
}

// Parameter resolves a #/components/parameters/ reference
func (r *Components) Parameter(ref string) *openapi3.Parameter {
	name, ok := lookupName(ref, SectionParameters)
	if !ok {
		return nil
	}
	pr := r.c.Parameters[name]
	if pr == nil || pr.Ref != "" {
		return nil
	}
	return pr.Value
}

// SchemaRef returns the raw entry of a schema component, reference or not
func (r *Components) SchemaRef(name string) *openapi3.SchemaRef {
	return r.c.Schemas[name]
}

// SchemaChain follows a schema reference through aliasing components
// (A is $ref B, B is $ref C) until it reaches an inline schema. The
// returned name is that of the last component visited. The guard is
// entered for every hop and released before returning.
func (r *Components) SchemaChain(ref string, g *Guard) (*openapi3.Schema, string, error) {
	var entered []string
	defer func() {
		for i := len(entered) - 1; i >= 0; i-- {
			g.Exit(entered[i])
		}
	}()

	for {
		p, err := ParsePointer(ref)
		if err != nil {
			return nil, "", err
		}
		if p.Section != SectionSchemas || len(p.Rest) > 0 {
			return nil, "", newError(ErrInvalidRef, ref, "not a schema component")
		}
		if err := g.Enter(ref); err != nil {
			return nil, "", err
		}
		entered = append(entered, ref)

		sr := r.c.Schemas[p.Name]
		switch {
		case sr == nil:
			return nil, "", newError(ErrMissingTarget, ref, "")
		case sr.Ref != "":
			ref = sr.Ref
		case sr.Value == nil:
			return nil, "", newError(ErrMissingTarget, ref, "empty schema entry")
		default:
			return sr.Value, p.Name, nil
		}
	}
}
