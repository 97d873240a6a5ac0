package ir

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the variant held by a ParamType
type Kind string

const (
	KindUnknown  Kind = "unknown"
	KindString   Kind = "string"
	KindInteger  Kind = "integer"
	KindFloat    Kind = "float"
	KindBoolean  Kind = "boolean"
	KindArray    Kind = "array"
	KindMap      Kind = "map"
	KindEnum     Kind = "enum"
	KindObject   Kind = "object"
	KindOptional Kind = "optional"
)

// ParamType is the abstract type of a schema node. Elem is set for Array,
// Map and Optional, Values for Enum and Name for Object. An Object only
// binds a name; whether a model exists for it is decided at render time.
type ParamType struct {
	Kind   Kind       `json:"kind" yaml:"kind"`
	Elem   *ParamType `json:"elem,omitempty" yaml:"elem,omitempty"`
	Values []string   `json:"values,omitempty" yaml:"values,omitempty"`
	Name   string     `json:"name,omitempty" yaml:"name,omitempty"`
}

var (
	Unknown = ParamType{Kind: KindUnknown}
	String  = ParamType{Kind: KindString}
	Integer = ParamType{Kind: KindInteger}
	Float   = ParamType{Kind: KindFloat}
	Boolean = ParamType{Kind: KindBoolean}
)

// Array returns Array(elem)
func Array(elem ParamType) ParamType { return ParamType{Kind: KindArray, Elem: &elem} }

// Map returns Map(elem); keys are always strings
func Map(elem ParamType) ParamType { return ParamType{Kind: KindMap, Elem: &elem} }

// Optional returns Optional(elem). Wrapping an Optional again is a no-op.
func Optional(elem ParamType) ParamType {
	if elem.Kind == KindOptional {
		return elem
	}
	return ParamType{Kind: KindOptional, Elem: &elem}
}

// Enum returns Enum(values)
func Enum(values []string) ParamType { return ParamType{Kind: KindEnum, Values: values} }

// Object returns Object(name)
func Object(name string) ParamType { return ParamType{Kind: KindObject, Name: name} }

// IsUnknown reports whether t carries no type information
func (t ParamType) IsUnknown() bool { return t.Kind == KindUnknown || t.Kind == "" }

// Equal reports structural equality
func (t ParamType) Equal(o ParamType) bool {
	if t.Kind != o.Kind || t.Name != o.Name || len(t.Values) != len(o.Values) {
		return false
	}
	for i := range t.Values {
		if t.Values[i] != o.Values[i] {
			return false
		}
	}
	switch {
	case t.Elem == nil && o.Elem == nil:
		return true
	case t.Elem == nil || o.Elem == nil:
		return false
	}
	return t.Elem.Equal(*o.Elem)
}

func (t ParamType) String() string {
	switch t.Kind {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindArray:
		return fmt.Sprintf("Array(%s)", t.Elem)
	case KindMap:
		return fmt.Sprintf("Map(%s)", t.Elem)
	case KindOptional:
		return fmt.Sprintf("Optional(%s)", t.Elem)
	case KindEnum:
		return fmt.Sprintf("Enum(%s)", strings.Join(t.Values, "|"))
	case KindObject:
		return fmt.Sprintf("Object(%s)", t.Name)
	default:
		return "Unknown"
	}
}

// Location is where a parameter travels on the wire
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
)

// Parameter is an operation parameter. Path parameters are always required.
type Parameter struct {
	Name     string    `json:"name" yaml:"name"`
	In       Location  `json:"in" yaml:"in"`
	Required bool      `json:"required" yaml:"required"`
	Type     ParamType `json:"type" yaml:"type"`
}

// RequestBody describes the JSON body of an operation
type RequestBody struct {
	Type     ParamType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
}

// Operation represents a single API operation (path + method)
type Operation struct {
	ID          string       `json:"id" yaml:"id"`
	Summary     string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Method      string       `json:"method" yaml:"method"`
	Path        string       `json:"path" yaml:"path"`
	Tags        []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Params      []Parameter  `json:"params,omitempty" yaml:"params,omitempty"`
	RequestBody *RequestBody `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Response    ParamType    `json:"response" yaml:"response"`
}

// OperationGroup is the list of operations sharing a tag
type OperationGroup struct {
	Tag        string      `json:"tag" yaml:"tag"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// PathParam is a placeholder found in a path template
type PathParam struct {
	Name   string `json:"name" yaml:"name"`
	Setter string `json:"setter" yaml:"setter"`
}

// FunctionParam is a non-path parameter of a synthesized function
type FunctionParam struct {
	// Name is the sanitized field identifier
	Name string `json:"name" yaml:"name"`
	// Setter is the builder method suffix; unique among the function's setters
	Setter   string   `json:"setter" yaml:"setter"`
	Wire     string   `json:"wire" yaml:"wire"`
	In       Location `json:"in" yaml:"in"`
	Required bool     `json:"required" yaml:"required"`
	Type     string   `json:"type" yaml:"type"`
}

// BodyIR is the rendered request body of a function
type BodyIR struct {
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
}

// FunctionIR is one client function derived from an Operation
type FunctionIR struct {
	Name          string          `json:"name" yaml:"name"`
	BuilderStruct string          `json:"builderStruct" yaml:"builderStruct"`
	Doc           string          `json:"doc,omitempty" yaml:"doc,omitempty"`
	Method        string          `json:"method" yaml:"method"`
	Path          string          `json:"path" yaml:"path"`
	Params        []FunctionParam `json:"params,omitempty" yaml:"params,omitempty"`
	PathParams    []PathParam     `json:"pathParams,omitempty" yaml:"pathParams,omitempty"`
	ReturnType    string          `json:"returnType" yaml:"returnType"`
	RequestBody   *BodyIR         `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
}

// ModuleIR groups the functions emitted into one module
type ModuleIR struct {
	Name      string       `json:"name" yaml:"name"`
	Functions []FunctionIR `json:"functions" yaml:"functions"`
}

// ModelKind tells whether a model is a record type or a synonym
type ModelKind string

const (
	ModelStruct ModelKind = "struct"
	ModelAlias  ModelKind = "alias"
)

// FieldIR is one field of a struct model
type FieldIR struct {
	Name     string `json:"name" yaml:"name"`
	Wire     string `json:"wire" yaml:"wire"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
	// Flatten marks an embedded composition branch
	Flatten bool `json:"flatten,omitempty" yaml:"flatten,omitempty"`
}

// ModelIR is the synthesized form of one named component schema
type ModelIR struct {
	Module string    `json:"module" yaml:"module"`
	Struct string    `json:"struct" yaml:"struct"`
	Kind   ModelKind `json:"kind" yaml:"kind"`
	Fields []FieldIR `json:"fields,omitempty" yaml:"fields,omitempty"`
	Alias  string    `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// ModuleMap maps raw schema names to module slugs. It is filled once by
// its builder and only read afterwards.
type ModuleMap struct {
	slugs map[string]string
	known map[string]struct{}
}

// NewModuleMap freezes the given name → slug table
func NewModuleMap(slugs map[string]string) *ModuleMap {
	m := &ModuleMap{
		slugs: make(map[string]string, len(slugs)),
		known: make(map[string]struct{}, len(slugs)),
	}
	for name, slug := range slugs {
		m.slugs[name] = slug
		m.known[slug] = struct{}{}
	}
	return m
}

// Slug returns the module slug assigned to a raw schema name
func (m *ModuleMap) Slug(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m.slugs[name]
	return s, ok
}

// Contains reports whether slug belongs to a known model
func (m *ModuleMap) Contains(slug string) bool {
	if m == nil {
		return false
	}
	_, ok := m.known[slug]
	return ok
}

// Names returns the raw schema names in lexical order
func (m *ModuleMap) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.slugs))
	for name := range m.slugs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries
func (m *ModuleMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.slugs)
}

// MarshalJSON exposes the table for dumps
func (m *ModuleMap) MarshalJSON() ([]byte, error) { return json.Marshal(m.table()) }

// MarshalYAML exposes the table for dumps
func (m *ModuleMap) MarshalYAML() (any, error) { return m.table(), nil }

func (m *ModuleMap) table() map[string]string {
	out := make(map[string]string, m.Len())
	if m != nil {
		for k, v := range m.slugs {
			out[k] = v
		}
	}
	return out
}

// Bundle is the complete output of the engine
type Bundle struct {
	Modules   []ModuleIR `json:"modules" yaml:"modules"`
	Models    []ModelIR  `json:"models" yaml:"models"`
	ModuleMap *ModuleMap `json:"moduleMap" yaml:"moduleMap"`
	Warnings  []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
