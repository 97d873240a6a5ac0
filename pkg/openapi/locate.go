package openapi

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

type nodeKind int

const (
	kindDocument nodeKind = iota
	kindComponents
	kindPathItem
	kindOperation
	kindParameter
	kindRequestBody
	kindResponse
	kindMediaType
	kindSchema
)

var pathItemMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

type child struct {
	segments []string
	kind     nodeKind
	node     any
}

// locate returns the deepest path whose subtree fails to decode into its
// typed model, with the decode error for that subtree.
func locate(path []string, kind nodeKind, node any) ([]string, error) {
	err := decodeAs(kind, node)
	if err == nil {
		return nil, nil
	}
	for _, c := range children(kind, node) {
		next := append(append([]string{}, path...), c.segments...)
		if p, cerr := locate(next, c.kind, c.node); cerr != nil {
			return p, cerr
		}
	}
	return path, err
}

func decodeAs(kind nodeKind, node any) error {
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}
	var target any
	switch kind {
	case kindDocument:
		target = &openapi3.T{}
	case kindComponents:
		target = &openapi3.Components{}
	case kindPathItem:
		target = &openapi3.PathItem{}
	case kindOperation:
		target = &openapi3.Operation{}
	case kindParameter:
		target = &openapi3.ParameterRef{}
	case kindRequestBody:
		target = &openapi3.RequestBodyRef{}
	case kindResponse:
		target = &openapi3.ResponseRef{}
	case kindMediaType:
		target = &openapi3.MediaType{}
	default:
		target = &openapi3.SchemaRef{}
	}
	return json.Unmarshal(data, target)
}

func children(kind nodeKind, node any) []child {
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	var out []child
	switch kind {
	case kindDocument:
		out = append(out, entries(m, "paths", kindPathItem)...)
		if c, ok := m["components"]; ok {
			out = append(out, child{[]string{"components"}, kindComponents, c})
		}
	case kindComponents:
		out = append(out, entries(m, "schemas", kindSchema)...)
		out = append(out, entries(m, "responses", kindResponse)...)
		out = append(out, entries(m, "requestBodies", kindRequestBody)...)
		out = append(out, entries(m, "parameters", kindParameter)...)
	case kindPathItem:
		for _, method := range pathItemMethods {
			if op, ok := m[method]; ok {
				out = append(out, child{[]string{method}, kindOperation, op})
			}
		}
		out = append(out, items(m, "parameters", kindParameter)...)
	case kindOperation:
		out = append(out, items(m, "parameters", kindParameter)...)
		if rb, ok := m["requestBody"]; ok {
			out = append(out, child{[]string{"requestBody"}, kindRequestBody, rb})
		}
		out = append(out, entries(m, "responses", kindResponse)...)
	case kindParameter:
		if s, ok := m["schema"]; ok {
			out = append(out, child{[]string{"schema"}, kindSchema, s})
		}
		out = append(out, entries(m, "content", kindMediaType)...)
	case kindRequestBody, kindResponse:
		out = append(out, entries(m, "content", kindMediaType)...)
	case kindMediaType:
		if s, ok := m["schema"]; ok {
			out = append(out, child{[]string{"schema"}, kindSchema, s})
		}
	case kindSchema:
		out = append(out, entries(m, "properties", kindSchema)...)
		for _, key := range []string{"items", "additionalProperties", "not"} {
			if s, ok := m[key].(map[string]any); ok {
				out = append(out, child{[]string{key}, kindSchema, s})
			}
		}
		for _, key := range []string{"allOf", "anyOf", "oneOf"} {
			out = append(out, items(m, key, kindSchema)...)
		}
	}
	return out
}

// entries lists the values of a keyed section in key order
func entries(m map[string]any, section string, kind nodeKind) []child {
	sub, ok := m[section].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(sub))
	for k := range sub {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]child, 0, len(keys))
	for _, k := range keys {
		out = append(out, child{[]string{section, k}, kind, sub[k]})
	}
	return out
}

func items(m map[string]any, section string, kind nodeKind) []child {
	list, ok := m[section].([]any)
	if !ok {
		return nil
	}
	out := make([]child, 0, len(list))
	for i, v := range list {
		out = append(out, child{[]string{section, "[" + strconv.Itoa(i) + "]"}, kind, v})
	}
	return out
}
