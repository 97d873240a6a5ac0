package resolver

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudflavor/skygen/pkg/normalize"
)

func TestParsePointer(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    Pointer
		wantErr error
	}{
		{name: "schema", ref: "#/components/schemas/Widget", want: Pointer{Section: SectionSchemas, Name: "Widget"}},
		{name: "escapes", ref: "#/components/schemas/a~1b~0c", want: Pointer{Section: SectionSchemas, Name: "a/b~c"}},
		{name: "nested", ref: "#/components/schemas/A/properties/b", want: Pointer{Section: SectionSchemas, Name: "A", Rest: []string{"properties", "b"}}},
		{name: "parameters", ref: "#/components/parameters/limit", want: Pointer{Section: SectionParameters, Name: "limit"}},
		{name: "bad escape", ref: "#/components/schemas/bad~2", wantErr: ErrPointerEscape},
		{name: "dangling escape", ref: "#/components/schemas/bad~", wantErr: ErrPointerEscape},
		{name: "bare fragment", ref: "#", wantErr: ErrInvalidRef},
		{name: "paths pointer", ref: "#/paths/~1widgets", wantErr: ErrInvalidRef},
		{name: "swagger definitions", ref: "#/definitions/Widget", wantErr: ErrInvalidRef},
		{name: "remote", ref: "common.yaml#/components/schemas/Widget", wantErr: ErrInvalidRef},
		{name: "unknown section", ref: "#/components/headers/X-Rate", wantErr: ErrInvalidRef},
		{name: "empty name", ref: "#/components/schemas/", wantErr: ErrInvalidRef},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParsePointer(test.ref)
			if test.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, test.wantErr), "got %v", err)
				var rerr *Error
				require.True(t, errors.As(err, &rerr))
				assert.Equal(t, test.ref, rerr.Ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestPointerJSONPointer(t *testing.T) {
	p := Pointer{Section: SectionSchemas, Name: "a/b~c", Rest: []string{"properties", "x"}}
	assert.Equal(t, "/components/schemas/a~1b~0c/properties/x", p.JSONPointer())
	assert.Equal(t, "#/components/schemas/a~1b~0c", ComponentRef(SectionSchemas, "a/b~c"))
}

func TestRefName(t *testing.T) {
	assert.Equal(t, "Widget", RefName("#/components/schemas/Widget"))
	assert.Equal(t, "a/b", RefName("#/components/schemas/a~1b"))
	assert.Equal(t, "Plain", RefName("Plain"))
}

func TestGuard(t *testing.T) {
	g := NewGuard(0)
	require.NoError(t, g.Enter("A"))
	require.NoError(t, g.Enter("B"))

	err := g.Enter("A")
	assert.True(t, errors.Is(err, ErrCycleDetected))

	g.Exit("B")
	g.Exit("A")
	assert.Equal(t, 0, g.Depth())
	require.NoError(t, g.Enter("A"))

	limited := NewGuard(1)
	require.NoError(t, limited.Enter("A"))
	assert.True(t, errors.Is(limited.Enter("B"), ErrMaxDepthExceeded))
}

func testComponents() *openapi3.Components {
	widget := &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeObject}}
	return &openapi3.Components{
		Schemas: openapi3.Schemas{
			"Widget": openapi3.NewSchemaRef("", widget),
			"Alias":  openapi3.NewSchemaRef("#/components/schemas/Widget", nil),
			"Double": openapi3.NewSchemaRef("#/components/schemas/Alias", nil),
			"LoopA":  openapi3.NewSchemaRef("#/components/schemas/LoopB", nil),
			"LoopB":  openapi3.NewSchemaRef("#/components/schemas/LoopA", nil),
			"Broken": openapi3.NewSchemaRef("#/components/schemas/Missing", nil),
		},
		Responses: openapi3.ResponseBodies{
			"NotFound": &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("not found")},
		},
		RequestBodies: openapi3.RequestBodies{
			"WidgetBody": &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody()},
			"AliasBody":  &openapi3.RequestBodyRef{Ref: "#/components/requestBodies/WidgetBody"},
		},
		Parameters: openapi3.ParametersMap{
			"limit": &openapi3.ParameterRef{Value: openapi3.NewQueryParameter("limit")},
		},
	}
}

func TestComponentsSingleLevel(t *testing.T) {
	r := NewComponents(testComponents())

	assert.NotNil(t, r.Schema("#/components/schemas/Widget"))
	assert.Nil(t, r.Schema("#/components/schemas/Alias"), "references are not followed")
	assert.Nil(t, r.Schema("#/components/schemas/Missing"))
	assert.Nil(t, r.Schema("#/components/responses/NotFound"))
	assert.Nil(t, r.Schema("#/definitions/Widget"))

	require.NotNil(t, r.Response("#/components/responses/NotFound"))
	assert.NotNil(t, r.RequestBody("#/components/requestBodies/WidgetBody"))
	assert.Nil(t, r.RequestBody("#/components/requestBodies/AliasBody"))
	assert.Equal(t, "limit", r.Parameter("#/components/parameters/limit").Name)

	assert.Nil(t, NewComponents(nil).Schema("#/components/schemas/Widget"))
}

func TestSchemaChain(t *testing.T) {
	r := NewComponents(testComponents())

	g := NewGuard(0)
	schema, name, err := r.SchemaChain("#/components/schemas/Double", g)
	require.NoError(t, err)
	assert.Equal(t, "Widget", name)
	assert.True(t, schema.Type.Is(openapi3.TypeObject))
	assert.Equal(t, 0, g.Depth())

	_, _, err = r.SchemaChain("#/components/schemas/LoopA", NewGuard(0))
	assert.True(t, errors.Is(err, ErrCycleDetected))

	_, _, err = r.SchemaChain("#/components/schemas/Broken", NewGuard(0))
	assert.True(t, errors.Is(err, ErrMissingTarget))

	_, _, err = r.SchemaChain("#/components/schemas/Double", NewGuard(2))
	assert.True(t, errors.Is(err, ErrMaxDepthExceeded))
}

func testDocument() *normalize.Document {
	return normalize.NewDocument(map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"Widget": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"part": map[string]any{"$ref": "#/components/schemas/Part"},
					},
				},
				"Part": map[string]any{"type": "string"},
				"A": map[string]any{"properties": map[string]any{
					"b": map[string]any{"$ref": "#/components/schemas/B"},
				}},
				"B": map[string]any{"properties": map[string]any{
					"a": map[string]any{"$ref": "#/components/schemas/A"},
				}},
				"Chain1":   map[string]any{"$ref": "#/components/schemas/Chain2"},
				"Chain2":   map[string]any{"$ref": "#/components/schemas/Part"},
				"Dangling": map[string]any{"$ref": "#/components/schemas/Nope"},
			},
		},
	})
}

func TestDocumentResolverDeterministic(t *testing.T) {
	r := NewDocumentResolver(testDocument(), 0)

	first, err := r.ResolveRef("#/components/schemas/Widget")
	require.NoError(t, err)
	second, err := r.ResolveRef("#/components/schemas/Widget")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.JSONEq(t, `{"type":"object","properties":{"part":{"type":"string"}}}`, string(a))
}

func TestDocumentResolverErrors(t *testing.T) {
	r := NewDocumentResolver(testDocument(), 0)

	_, err := r.ResolveRef("#/components/schemas/A")
	assert.True(t, errors.Is(err, ErrCycleDetected), "got %v", err)

	_, err = r.ResolveRef("#/components/schemas/Dangling")
	assert.True(t, errors.Is(err, ErrMissingTarget), "got %v", err)

	_, err = r.Lookup("#/components/schemas/Part/type")
	assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)

	_, err = r.Lookup("#/paths/x")
	assert.True(t, errors.Is(err, ErrInvalidRef), "got %v", err)

	limited := NewDocumentResolver(testDocument(), 2)
	_, err = limited.ResolveRef("#/components/schemas/Chain1")
	assert.True(t, errors.Is(err, ErrMaxDepthExceeded), "got %v", err)
}

func recursiveDocument() *normalize.Document {
	return normalize.NewDocument(map[string]any{
		"paths": map[string]any{
			"/nodes": map[string]any{"get": map[string]any{
				"responses": map[string]any{"200": map[string]any{
					"content": map[string]any{"application/json": map[string]any{
						"schema": map[string]any{"$ref": "#/components/schemas/Node"},
					}},
				}},
			}},
		},
		"components": map[string]any{"schemas": map[string]any{
			"Node": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"children": map[string]any{
						"type":  "array",
						"items": map[string]any{"$ref": "#/components/schemas/Node"},
					},
				},
			},
		}},
	})
}

func TestDocumentResolverCheck(t *testing.T) {
	require.NoError(t, NewDocumentResolver(recursiveDocument(), 0).Check())

	r := NewDocumentResolver(testDocument(), 0)
	err := r.Check()
	assert.True(t, errors.Is(err, ErrMissingTarget), "got %v", err)

	aliasLoop := normalize.NewDocument(map[string]any{
		"components": map[string]any{"schemas": map[string]any{
			"A": map[string]any{"$ref": "#/components/schemas/B"},
			"B": map[string]any{"$ref": "#/components/schemas/A"},
		}},
	})
	err = NewDocumentResolver(aliasLoop, 0).Check()
	assert.True(t, errors.Is(err, ErrCycleDetected), "got %v", err)

	badEscape := normalize.NewDocument(map[string]any{
		"components": map[string]any{"schemas": map[string]any{
			"A": map[string]any{"items": map[string]any{"$ref": "#/components/schemas/x~2"}},
		}},
	})
	err = NewDocumentResolver(badEscape, 0).Check()
	assert.True(t, errors.Is(err, ErrPointerEscape), "got %v", err)
}

func TestDocumentResolverResolveKeepsBackEdges(t *testing.T) {
	out, err := NewDocumentResolver(recursiveDocument(), 0).Resolve()
	require.NoError(t, err)

	node := out["components"].(map[string]any)["schemas"].(map[string]any)["Node"].(map[string]any)
	children := node["properties"].(map[string]any)["children"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/components/schemas/Node"}, children["items"])

	schema := out["paths"].(map[string]any)["/nodes"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)["200"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	items := schema["properties"].(map[string]any)["children"].(map[string]any)["items"]
	assert.Equal(t, map[string]any{"$ref": "#/components/schemas/Node"}, items)
}

func TestDocumentResolverResolveRejectsBrokenReferences(t *testing.T) {
	_, err := NewDocumentResolver(testDocument(), 0).Resolve()
	assert.True(t, errors.Is(err, ErrMissingTarget), "got %v", err)
}
