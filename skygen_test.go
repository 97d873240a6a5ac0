package skygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudflavor/skygen/pkg/emit"
	"github.com/cloudflavor/skygen/pkg/resolver"
)

const petstore = `{
  "openapi": "3.0.3",
  "info": {"title": "Pet Store", "version": "v2", "description": "Pets"},
  "servers": [{"url": "https://pets.example.com/v2"}],
  "paths": {
    "/pets/{petId}": {
      "get": {
        "operationId": "getPetById",
        "tags": ["pets"],
        "parameters": [{"name": "petId", "in": "path", "required": true, "schema": {"type": "integer"}}],
        "responses": {
          "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "integer", "maximum": 99999999999999999999},
          "name": {"type": "string"}
        }
      }
    }
  }
}`

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuild(t *testing.T) {
	res, err := Build(context.Background(), Options{Spec: writeSpec(t, "petstore.json", petstore)})
	require.NoError(t, err)

	assert.Equal(t, "pet-store", res.Project.Name)
	assert.Equal(t, "2.0.0", res.Project.Version)
	assert.Equal(t, "Pets", res.Project.Description)
	assert.Equal(t, "https://pets.example.com/v2", res.Project.APIURL)

	require.Len(t, res.Bundle.Modules, 1)
	fn := res.Bundle.Modules[0].Functions[0]
	assert.Equal(t, "get_pet", fn.Name)
	assert.Equal(t, "crate::models::pet::Pet", fn.ReturnType)
	require.Len(t, res.Bundle.Models, 1)
	assert.Equal(t, "pet", res.Bundle.Models[0].Module)
}

func TestGenerateWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(context.Background(), &buf, Options{
		Spec:    writeSpec(t, "petstore.json", petstore),
		Project: emit.Project{Name: "pets-sdk"},
	})
	require.NoError(t, err)

	var doc struct {
		Project struct {
			Name string `json:"name"`
		} `json:"project"`
		IR struct {
			ModuleMap map[string]string `json:"moduleMap"`
		} `json:"ir"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "pets-sdk", doc.Project.Name)
	assert.Equal(t, map[string]string{"Pet": "pet"}, doc.IR.ModuleMap)
}

func TestGenerateUnknownFormat(t *testing.T) {
	err := Generate(context.Background(), &bytes.Buffer{}, Options{Spec: "unused.yaml", Format: "toml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestValidate(t *testing.T) {
	spec := writeSpec(t, "petstore.json", petstore)
	require.NoError(t, Validate(context.Background(), Options{Spec: spec}, false))
	require.NoError(t, Validate(context.Background(), Options{Spec: spec}, true))

	broken := writeSpec(t, "broken.yaml", `openapi: 3.0.3
info: {title: t, version: "1"}
paths: {}
components:
  schemas:
    A: {$ref: '#/components/schemas/Missing'}
`)
	err := Validate(context.Background(), Options{Spec: broken}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, resolver.ErrMissingTarget))
}

func TestResolve(t *testing.T) {
	tree, err := Resolve(context.Background(), Options{Spec: writeSpec(t, "petstore.json", petstore)})
	require.NoError(t, err)

	paths := tree["paths"].(map[string]any)
	schema := paths["/pets/{petId}"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)["200"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$ref")
}

func TestValidateMissingFile(t *testing.T) {
	if _, err := os.Stat("/no/such/file.yaml"); err == nil {
		t.Fatal("expected no file")
	}
	require.Error(t, Validate(context.Background(), Options{Spec: "/no/such/file.yaml"}, false))
}

const recursiveTree = `openapi: 3.0.3
info: {title: Trees, version: "1.0"}
paths:
  /nodes:
    get:
      operationId: listNodes
      tags: [nodes]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Node'
components:
  schemas:
    Node:
      type: object
      properties:
        name: {type: string}
        children:
          type: array
          items:
            $ref: '#/components/schemas/Node'
`

func TestRecursiveDocument(t *testing.T) {
	opts := Options{Spec: writeSpec(t, "tree.yaml", recursiveTree)}

	res, err := Build(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, res.Bundle.Models, 1)

	require.NoError(t, Validate(context.Background(), opts, false))

	tree, err := Resolve(context.Background(), opts)
	require.NoError(t, err)
	node := tree["components"].(map[string]any)["schemas"].(map[string]any)["Node"].(map[string]any)
	children := node["properties"].(map[string]any)["children"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/components/schemas/Node"}, children["items"])
}
