package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const widgets = `openapi: 3.0.3
info:
  title: Widgets
  version: 1.0.0
paths:
  /widgets/{id}:
    get:
      operationId: getWidgetById
      tags: [widgets]
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Widget'
components:
  schemas:
    Widget:
      type: object
      properties:
        name:
          type: string
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "skygen", cmd.Use)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"generate", "validate", "resolve"} {
		assert.True(t, names[want], "missing %s command", want)
	}

	for _, flag := range []string{"log-level", "config", "spec", "output", "format", "include-tags", "parallelism"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing --%s flag", flag)
	}
}

func TestValidateCommand(t *testing.T) {
	spec := writeSpec(t, widgets)

	out, err := execute(t, "validate", "--spec", spec)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	validate, _, err := NewRootCommand().Find([]string{"validate"})
	require.NoError(t, err)
	assert.NotNil(t, validate.Flags().Lookup("strict"))
}

func TestGenerateCommandWritesFile(t *testing.T) {
	spec := writeSpec(t, widgets)
	output := filepath.Join(t.TempDir(), "nested", "bundle.json")

	out, err := execute(t, "generate", "--spec", spec, "--output", output, "--project-name", "widgets")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "project")
	assert.Contains(t, doc, "ir")
}

func TestGenerateCommandFailureWritesNothing(t *testing.T) {
	spec := writeSpec(t, "openapi: [")
	output := filepath.Join(t.TempDir(), "bundle.json")

	_, err := execute(t, "generate", "--spec", spec, "--output", output)
	require.Error(t, err)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolveCommandYAML(t *testing.T) {
	spec := writeSpec(t, widgets)

	out, err := execute(t, "resolve", "--spec", spec, "--format", "yaml")
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "3.0.3", tree["openapi"])
	assert.NotContains(t, out, "$ref")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "validate", "--spec", writeSpec(t, widgets), "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMissingSpec(t *testing.T) {
	_, err := execute(t, "generate")
	require.Error(t, err)
}
