package generator

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/require"

	"github.com/cloudflavor/skygen/pkg/normalize"
	"github.com/cloudflavor/skygen/pkg/openapi"
)

func loadDoc(t *testing.T, src string) *openapi3.T {
	t.Helper()
	canonical, err := normalize.Normalize([]byte(src), normalize.FormatAuto)
	require.NoError(t, err)
	doc, err := openapi.Decode(canonical)
	require.NoError(t, err)
	return doc
}

const widgetAPI = `openapi: 3.0.3
info:
  title: Widgets
  version: 1.0.0
paths:
  /widgets/{id}:
    parameters:
      - name: id
        in: path
        required: true
        schema:
          type: string
    get:
      operationId: getWidgetById
      summary: Fetch one widget
      tags: [Widgets]
      parameters:
        - name: expand
          in: query
          schema:
            type: boolean
        - name: id
          in: header
          schema:
            type: string
        - name: session
          in: cookie
          schema:
            type: string
        - $ref: '#/components/parameters/Trace'
        - $ref: '#/components/parameters/Missing'
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Widget'
    delete:
      operationId: deleteWidget
      tags: [Widgets]
      responses:
        default:
          $ref: '#/components/responses/Error'
  /widgets:
    get:
      tags: [Widgets]
      responses:
        "201":
          description: listed
    post:
      operationId: createWidget
      description: Creates a widget
      tags: [Widgets, internal]
      requestBody:
        $ref: '#/components/requestBodies/NewWidget'
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Widget'
  /health:
    get:
      responses:
        "204":
          description: empty
components:
  parameters:
    Trace:
      name: X-Trace
      in: header
      schema:
        type: string
  responses:
    Error:
      description: error
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Error'
  requestBodies:
    NewWidget:
      required: true
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Widget'
  schemas:
    Widget:
      type: object
      required: [name]
      properties:
        size:
          type: integer
        name:
          type: string
    Error:
      type: object
      properties:
        message:
          type: string
`
