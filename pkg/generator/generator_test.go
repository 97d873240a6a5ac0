package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/resolver"
)

func TestGenerate(t *testing.T) {
	doc := loadDoc(t, widgetAPI)
	bundle, err := Generate(context.Background(), doc, Options{})
	require.NoError(t, err)

	require.Len(t, bundle.Modules, 2)
	assert.Equal(t, "untagged", bundle.Modules[0].Name)
	assert.Equal(t, "health", bundle.Modules[0].Functions[0].Name)
	assert.Equal(t, "widgets", bundle.Modules[1].Name)

	require.Len(t, bundle.Models, 2)
	assert.Equal(t, "error", bundle.Models[0].Module)
	assert.Equal(t, "widget", bundle.Models[1].Module)
	assert.Equal(t, []ir.FieldIR{
		{Name: "name", Wire: "name", Type: "String", Required: true},
		{Name: "size", Wire: "size", Type: "Option<i64>"},
	}, bundle.Models[1].Fields)

	assert.Equal(t, []string{"Error", "Widget"}, bundle.ModuleMap.Names())
	require.Len(t, bundle.Warnings, 1)
	assert.Contains(t, bundle.Warnings[0], "dropping unresolvable parameter")
}

func TestGenerateParallelMatchesSequential(t *testing.T) {
	doc := loadDoc(t, modelAPI)
	sequential, err := Generate(context.Background(), doc, Options{})
	require.NoError(t, err)
	parallel, err := Generate(context.Background(), doc, Options{Parallelism: 8})
	require.NoError(t, err)

	if diff := cmp.Diff(sequential, parallel, cmp.AllowUnexported(ir.ModuleMap{})); diff != "" {
		t.Errorf("parallel run differs (-seq +par):\n%s", diff)
	}
}

func TestGenerateAbortsOnCycle(t *testing.T) {
	doc := loadDoc(t, `openapi: 3.0.3
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    Loop:
      $ref: '#/components/schemas/Loop'
`)
	bundle, err := Generate(context.Background(), doc, Options{Parallelism: 2})
	require.Error(t, err)
	assert.Nil(t, bundle)
	assert.True(t, errors.Is(err, resolver.ErrCycleDetected))
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, loadDoc(t, modelAPI), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateRejectsBadFilter(t *testing.T) {
	_, err := Generate(context.Background(), loadDoc(t, widgetAPI), Options{ExcludeTags: []string{"["}})
	require.Error(t, err)
}

func TestGenerateSkipList(t *testing.T) {
	src := `openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /things:
    get:
      operationId: listThings
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                allOf:
                  - $ref: '#/components/schemas/Envelope'
                  - $ref: '#/components/schemas/Thing'
components:
  schemas:
    Envelope: {type: object}
    Thing:
      type: object
      properties:
        id: {type: string}
`
	doc := loadDoc(t, src)

	plain, err := Generate(context.Background(), doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, "crate::models::envelope::Envelope", plain.Modules[0].Functions[0].ReturnType)

	skipping, err := Generate(context.Background(), doc, Options{Skip: []string{"Envelope"}})
	require.NoError(t, err)
	assert.Equal(t, "crate::models::thing::Thing", skipping.Modules[0].Functions[0].ReturnType)
}

func TestFormatWarning(t *testing.T) {
	assert.Equal(t, "dropping parameter operation=op ref=#/x", formatWarning("dropping parameter", "operation", "op", "ref", "#/x"))
}

const reservedTagsAPI = `openapi: 3.0.3
info: {title: Reserved, version: "1.0"}
paths:
  /types:
    get:
      operationId: listTypes
      tags: [type]
      responses:
        "200": {description: ok}
  /2fa/verify:
    post:
      operationId: 2faVerify
      tags: [auth]
      responses:
        "200": {description: ok}
  /codes:
    get:
      operationId: listCodes
      tags: [2fa]
      responses:
        "200": {description: ok}
  /match:
    post:
      operationId: match
      tags: [matching]
      responses:
        "200": {description: ok}
`

func TestGenerateEscapesModuleAndFunctionNames(t *testing.T) {
	bundle, err := Generate(context.Background(), loadDoc(t, reservedTagsAPI), Options{})
	require.NoError(t, err)

	got := map[string][]string{}
	for _, m := range bundle.Modules {
		for _, fn := range m.Functions {
			got[m.Name] = append(got[m.Name], fn.Name)
		}
	}
	assert.Equal(t, map[string][]string{
		"auth":      {"fn_2fa_verify"},
		"matching":  {"match_fn"},
		"model_2fa": {"list_codes"},
		"type_mod":  {"list_types"},
	}, got)
}
