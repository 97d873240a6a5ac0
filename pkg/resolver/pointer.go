package resolver

import (
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// Section is one of the component sections references may point into
type Section string

const (
	SectionSchemas       Section = "schemas"
	SectionResponses     Section = "responses"
	SectionRequestBodies Section = "requestBodies"
	SectionParameters    Section = "parameters"
)

var sections = map[Section]struct{}{
	SectionSchemas:       {},
	SectionResponses:     {},
	SectionRequestBodies: {},
	SectionParameters:    {},
}

// Pointer is a parsed local component reference such as
// #/components/schemas/Widget.
type Pointer struct {
	Section Section
	Name    string
	// Rest holds unescaped segments below the named component
	Rest []string
}

// Prefix returns the reference prefix of a section
func (s Section) Prefix() string {
	return "#/components/" + string(s) + "/"
}

// JSONPointer renders the pointer in RFC 6901 form
func (p Pointer) JSONPointer() string {
	segs := append([]string{"components", string(p.Section), p.Name}, p.Rest...)
	for i := range segs {
		segs[i] = jsonpointer.Escape(segs[i])
	}
	return "/" + strings.Join(segs, "/")
}

// Ref renders the pointer as a local reference
func (p Pointer) Ref() string { return "#" + p.JSONPointer() }

// ComponentRef builds the reference to a named component
func ComponentRef(section Section, name string) string {
	return Pointer{Section: section, Name: name}.Ref()
}

// ParsePointer parses a reference. Only fragment references into the four
// component sections are accepted; anything else is ErrInvalidRef.
// Segments are unescaped (~1 to /, ~0 to ~); any other escape is
// ErrPointerEscape.
func ParsePointer(ref string) (Pointer, error) {
	if !strings.HasPrefix(ref, "#/") {
		return Pointer{}, newError(ErrInvalidRef, ref, "only local #/components references are supported")
	}
	raw := strings.Split(ref[2:], "/")
	segs := make([]string, len(raw))
	for i, s := range raw {
		if !validEscapes(s) {
			return Pointer{}, newError(ErrPointerEscape, ref, "in segment "+s)
		}
		segs[i] = jsonpointer.Unescape(s)
	}
	if len(segs) < 3 || segs[0] != "components" {
		return Pointer{}, newError(ErrInvalidRef, ref, "not a component reference")
	}
	sec := Section(segs[1])
	if _, ok := sections[sec]; !ok {
		return Pointer{}, newError(ErrInvalidRef, ref, "unsupported component section "+segs[1])
	}
	if segs[2] == "" {
		return Pointer{}, newError(ErrInvalidRef, ref, "empty component name")
	}
	p := Pointer{Section: sec, Name: segs[2]}
	if len(segs) > 3 {
		p.Rest = segs[3:]
	}
	return p, nil
}

func validEscapes(seg string) bool {
	for i := 0; i < len(seg); i++ {
		if seg[i] != '~' {
			continue
		}
		if i+1 >= len(seg) || (seg[i+1] != '0' && seg[i+1] != '1') {
			return false
		}
		i++
	}
	return true
}

// RefName returns the unescaped trailing segment of a reference. It is the
// name a reference binds to without resolving it.
func RefName(ref string) string {
	i := strings.LastIndex(ref, "/")
	return jsonpointer.Unescape(ref[i+1:])
}
