package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaAt(t *testing.T, doc *Document, name string) map[string]any {
	t.Helper()
	components, ok := doc.Root()["components"].(map[string]any)
	require.True(t, ok)
	schemas, ok := components["schemas"].(map[string]any)
	require.True(t, ok)
	schema, ok := schemas[name].(map[string]any)
	require.True(t, ok, "schema %s missing", name)
	return schema
}

func TestNormalizeJSONClampsOverflow(t *testing.T) {
	data := []byte(`{"openapi":"3.0.0","components":{"schemas":{
		"Big":{"type":"integer","maximum":99999999999999999999},
		"Small":{"type":"integer","maximum":42}}}}`)

	doc, err := Normalize(data, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, doc.Format)
	assert.True(t, doc.Salvaged)
	assert.Equal(t, json.Number("9223372036854775807"), schemaAt(t, doc, "Big")["maximum"])
	assert.Equal(t, json.Number("42"), schemaAt(t, doc, "Small")["maximum"])

	out, err := doc.JSON()
	require.NoError(t, err)
	again, err := Normalize(out, FormatJSON)
	require.NoError(t, err)
	assert.False(t, again.Salvaged)
	assert.Equal(t, doc.Root(), again.Root())
}

func TestNormalizeYAML(t *testing.T) {
	data := []byte(`openapi: 3.0.0
components:
  schemas:
    Big:
      type: integer
      maximum: 99999999999999999999
      minLength: -3
    Codes:
      200: ok
      true: yes
      ~: nothing
      0x1F: hex
base: &base
  a: 1
  b: 2
derived:
  <<: *base
  b: 3
alias: *base
`)

	doc, err := Normalize(data, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, doc.Format)
	assert.True(t, doc.Salvaged)
	assert.Equal(t, "3.0.0", doc.Root()["openapi"])

	big := schemaAt(t, doc, "Big")
	assert.Equal(t, json.Number("9223372036854775807"), big["maximum"])
	assert.Equal(t, json.Number("0"), big["minLength"])

	codes := schemaAt(t, doc, "Codes")
	assert.Equal(t, "ok", codes["200"])
	assert.Equal(t, "yes", codes["true"])
	assert.Equal(t, "nothing", codes["null"])
	assert.Equal(t, "hex", codes["31"])

	assert.Equal(t, map[string]any{"a": json.Number("1"), "b": json.Number("3")}, doc.Root()["derived"])
	assert.Equal(t, map[string]any{"a": json.Number("1"), "b": json.Number("2")}, doc.Root()["alias"])
}

func TestNormalizeErrorPath(t *testing.T) {
	data := []byte(`{"components": {"schemas": {"Foo": {"properties": {"bar": [1, 2}}}}}`)

	_, err := Normalize(data, FormatAuto)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "components.schemas.Foo.properties.bar", perr.Path)
	assert.Contains(t, err.Error(), "components.schemas.Foo.properties.bar: ")
}

func TestNormalizeRootMustBeMapping(t *testing.T) {
	_, err := Normalize([]byte(`[1, 2]`), FormatJSON)
	require.Error(t, err)
	assert.Equal(t, "<root>: document root must be a mapping", err.Error())
}

func TestSniffFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, SniffFormat("api.JSON", nil))
	assert.Equal(t, FormatYAML, SniffFormat("api.yml", nil))
	assert.Equal(t, FormatJSON, SniffFormat("", []byte("  {\"a\":1}")))
	assert.Equal(t, FormatYAML, SniffFormat("", []byte("openapi: 3.0.0")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "paths./a.get.parameters[0].schema", JoinPath([]string{"paths", "/a", "get", "parameters", "[0]", "schema"}))
	assert.Equal(t, "", JoinPath(nil))
}
