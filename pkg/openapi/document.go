package openapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/normalize"
)

// Decode converts a canonical document into the typed OpenAPI model.
// References are left unresolved: a $ref node decodes with Ref set and a
// nil Value. A failure is reported as a *normalize.ParseError located at
// the deepest section that does not decode.
func Decode(doc *normalize.Document) (*openapi3.T, error) {
	data, err := doc.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding canonical document: %w", err)
	}
	var t openapi3.T
	if err := json.Unmarshal(data, &t); err != nil {
		segments, cause := locate(nil, kindDocument, doc.Root())
		if cause == nil {
			cause = err
		}
		return nil, &normalize.ParseError{Path: normalize.JoinPath(segments), Err: cause}
	}
	if t.Paths == nil {
		t.Paths = openapi3.NewPaths()
	}
	return &t, nil
}

// Validate checks the document against the OpenAPI 3 rules implemented by
// kin-openapi. The document is decoded afresh and its local references
// resolved, so the caller's model is not modified.
func Validate(ctx context.Context, doc *normalize.Document) error {
	t, err := Decode(doc)
	if err != nil {
		return err
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	if err := loader.ResolveRefsIn(t, nil); err != nil {
		return fmt.Errorf("resolving references: %w", err)
	}
	return t.Validate(ctx, openapi3.DisableExamplesValidation())
}
