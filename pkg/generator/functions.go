package generator

import (
	"fmt"
	"strings"

	"github.com/cloudflavor/skygen/pkg/generator/rust"
	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/naming"
)

// SynthesizeModule turns one operation group into a module of functions.
// The group tag is already a module slug and its tokens are stripped from
// function names. Function names are unique within the module.
// Degradations to the untyped value are returned as warnings.
func SynthesizeModule(group ir.OperationGroup, renderer *rust.Renderer) (ir.ModuleIR, []string) {
	moduleTokens := splitModule(group.Tag)
	tracker := naming.NewNameTracker()

	var warnings []string
	module := ir.ModuleIR{Name: group.Tag, Functions: make([]ir.FunctionIR, 0, len(group.Operations))}
	for _, op := range group.Operations {
		base := naming.SanitizeFunctionName(naming.GenerateFunctionName(op.ID, op.Method, op.Path, moduleTokens))
		name := tracker.Uniquify(base, op.Method)

		fn := ir.FunctionIR{
			Name:          name,
			BuilderStruct: naming.UpperCamelCase(name) + "Request",
			Doc:           functionDoc(op),
			Method:        strings.ToUpper(op.Method),
			Path:          strings.TrimPrefix(op.Path, "/"),
			PathParams:    naming.ExtractPathParams(op.Path),
			ReturnType:    renderer.Render(op.Response),
		}
		fn.Params = functionParams(op.Params, fn.PathParams, renderer)

		if op.RequestBody != nil {
			fn.RequestBody = &ir.BodyIR{
				Type:     renderer.Render(op.RequestBody.Type),
				Required: op.RequestBody.Required,
			}
		}

		for _, t := range operationTypes(op) {
			for _, missing := range renderer.Dangling(t) {
				warnings = append(warnings, fmt.Sprintf("%s.%s: no model for %q, using %s", group.Tag, name, missing, rust.UntypedValue))
			}
		}
		module.Functions = append(module.Functions, fn)
	}
	return module, warnings
}

// functionParams builds the non-path parameters. A setter that clashes
// with a path placeholder or an earlier parameter gets the location as a
// suffix, then a counter.
func functionParams(params []ir.Parameter, pathParams []ir.PathParam, renderer *rust.Renderer) []ir.FunctionParam {
	used := make(map[string]struct{}, len(pathParams)+len(params))
	for _, pp := range pathParams {
		used[pp.Setter] = struct{}{}
	}

	var out []ir.FunctionParam
	for _, p := range params {
		if p.In == ir.LocationPath {
			continue
		}
		base := naming.SanitizeMethodSuffix(p.Name)
		setter := base
		if _, taken := used[setter]; taken {
			setter = base + "_" + string(p.In)
			for n := 2; ; n++ {
				if _, taken := used[setter]; !taken {
					break
				}
				setter = fmt.Sprintf("%s_%s_%d", base, p.In, n)
			}
		}
		used[setter] = struct{}{}

		field := naming.SanitizeIdentifier(naming.SnakeCase(p.Name))
		if setter != base {
			field = naming.SanitizeIdentifier(setter)
		}

		t := p.Type
		if !p.Required {
			t = ir.Optional(t)
		}
		out = append(out, ir.FunctionParam{
			Name:     field,
			Setter:   setter,
			Wire:     p.Name,
			In:       p.In,
			Required: p.Required,
			Type:     renderer.Render(t),
		})
	}
	return out
}

func functionDoc(op ir.Operation) string {
	if op.Summary != "" {
		return op.Summary
	}
	return op.Description
}

func operationTypes(op ir.Operation) []ir.ParamType {
	out := []ir.ParamType{op.Response}
	for _, p := range op.Params {
		out = append(out, p.Type)
	}
	if op.RequestBody != nil {
		out = append(out, op.RequestBody.Type)
	}
	return out
}

func splitModule(module string) []string {
	var out []string
	for _, tok := range strings.Split(module, "_") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
