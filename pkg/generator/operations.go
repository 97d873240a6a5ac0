package generator

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/cloudflavor/skygen/pkg/infer"
	"github.com/cloudflavor/skygen/pkg/ir"
	"github.com/cloudflavor/skygen/pkg/naming"
	"github.com/cloudflavor/skygen/pkg/resolver"
)

// UntaggedModule groups operations that declare no tag
const UntaggedModule = "untagged"

const jsonMediaType = "application/json"

// supportedMethods lists the methods turned into operations, in the order
// they are visited within a path item
var supportedMethods = []string{"get", "post", "put", "delete", "patch", "options"}

// preferredResponses are tried in order before the default response
var preferredResponses = []string{"200", "201"}

// Extractor walks the paths of a document into operations grouped by tag.
type Extractor struct {
	components *resolver.Components
	infer      *infer.Inferencer
	include    []*regexp.Regexp
	exclude    []*regexp.Regexp
	logger     *slog.Logger
	warnings   []string
}

// NewExtractor creates an extractor. Include and exclude are regular
// expressions matched against every declared tag of an operation.
func NewExtractor(doc *openapi3.T, inf *infer.Inferencer, includeTags, excludeTags []string, logger *slog.Logger) (*Extractor, error) {
	include, exclude, err := compileTagFilters(includeTags, excludeTags)
	if err != nil {
		return nil, err
	}
	if inf == nil {
		inf = infer.New()
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &Extractor{
		components: resolver.NewComponents(doc.Components),
		infer:      inf,
		include:    include,
		exclude:    exclude,
		logger:     logger,
	}, nil
}

// Warnings returns the degradations recorded during extraction
func (e *Extractor) Warnings() []string { return e.warnings }

func (e *Extractor) warn(msg string, args ...any) {
	e.logger.Warn(msg, args...)
	e.warnings = append(e.warnings, formatWarning(msg, args...))
}

// Extract returns the operations of doc grouped by module, ordered by tag.
// Paths are visited in lexical order and methods in a fixed order, so
// operations keep a stable order within their group.
func (e *Extractor) Extract(doc *openapi3.T) []ir.OperationGroup {
	if doc.Paths == nil {
		return nil
	}

	paths := make([]string, 0, doc.Paths.Len())
	for path := range doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	grouped := map[string][]ir.Operation{}
	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range supportedMethods {
			op := item.GetOperation(strings.ToUpper(method))
			if op == nil {
				continue
			}

			originalTags := op.Tags
			if len(originalTags) == 0 {
				originalTags = []string{UntaggedModule}
			}
			if !shouldIncludeOperation(originalTags, e.include, e.exclude) {
				e.logger.Debug("operation filtered by tags", "method", method, "path", path)
				continue
			}

			operation := e.operation(method, path, item, op)
			tag := moduleForTags(op.Tags)
			grouped[tag] = append(grouped[tag], operation)
		}
	}

	tags := make([]string, 0, len(grouped))
	for tag := range grouped {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	groups := make([]ir.OperationGroup, 0, len(tags))
	for _, tag := range tags {
		groups = append(groups, ir.OperationGroup{Tag: tag, Operations: grouped[tag]})
	}
	return groups
}

func (e *Extractor) operation(method, path string, item *openapi3.PathItem, op *openapi3.Operation) ir.Operation {
	id := op.OperationID
	if id == "" {
		id = naming.FallbackOperationID(method, path)
	}

	// operation parameters follow the shared ones; duplicates are kept
	refs := make(openapi3.Parameters, 0, len(item.Parameters)+len(op.Parameters))
	refs = append(refs, item.Parameters...)
	refs = append(refs, op.Parameters...)

	var params []ir.Parameter
	for _, ref := range refs {
		if p, ok := e.parameter(id, ref); ok {
			params = append(params, p)
		}
	}

	return ir.Operation{
		ID:          id,
		Summary:     op.Summary,
		Description: op.Description,
		Method:      method,
		Path:        path,
		Tags:        op.Tags,
		Params:      params,
		RequestBody: e.requestBody(op),
		Response:    e.response(op),
	}
}

func (e *Extractor) parameter(opID string, ref *openapi3.ParameterRef) (ir.Parameter, bool) {
	if ref == nil {
		return ir.Parameter{}, false
	}
	p := ref.Value
	if ref.Ref != "" {
		p = e.components.Parameter(ref.Ref)
	}
	if p == nil {
		e.warn("dropping unresolvable parameter", "operation", opID, "ref", ref.Ref)
		return ir.Parameter{}, false
	}

	var loc ir.Location
	switch p.In {
	case openapi3.ParameterInPath:
		loc = ir.LocationPath
	case openapi3.ParameterInQuery:
		loc = ir.LocationQuery
	case openapi3.ParameterInHeader:
		loc = ir.LocationHeader
	default:
		e.logger.Debug("skipping parameter", "operation", opID, "name", p.Name, "in", p.In)
		return ir.Parameter{}, false
	}

	return ir.Parameter{
		Name:     p.Name,
		In:       loc,
		Required: p.Required || loc == ir.LocationPath,
		Type:     e.infer.Infer(p.Schema),
	}, true
}

func (e *Extractor) requestBody(op *openapi3.Operation) *ir.RequestBody {
	if op.RequestBody == nil {
		return nil
	}
	body := op.RequestBody.Value
	if op.RequestBody.Ref != "" {
		body = e.components.RequestBody(op.RequestBody.Ref)
		if body == nil {
			return &ir.RequestBody{Type: ir.Object(resolver.RefName(op.RequestBody.Ref)), Required: true}
		}
	}
	if body == nil {
		return nil
	}
	media := body.Content[jsonMediaType]
	if media == nil {
		return nil
	}
	return &ir.RequestBody{Type: e.infer.Infer(media.Schema), Required: body.Required}
}

func (e *Extractor) response(op *openapi3.Operation) ir.ParamType {
	if op.Responses == nil {
		return ir.Unknown
	}
	var chosen *openapi3.ResponseRef
	for _, code := range preferredResponses {
		if rr := op.Responses.Value(code); rr != nil {
			chosen = rr
			break
		}
	}
	if chosen == nil {
		chosen = op.Responses.Default()
	}
	if chosen == nil {
		return ir.Unknown
	}

	resp := chosen.Value
	if chosen.Ref != "" {
		resp = e.components.Response(chosen.Ref)
		if resp == nil {
			return ir.Object(resolver.RefName(chosen.Ref))
		}
	}
	if resp == nil {
		return ir.Unknown
	}
	media := resp.Content[jsonMediaType]
	if media == nil {
		return ir.Unknown
	}
	return e.infer.Infer(media.Schema)
}

// moduleForTags picks the module an operation is filed under. The first
// tag becomes a module slug, escaped like schema modules.
func moduleForTags(tags []string) string {
	if len(tags) > 0 && naming.SnakeCase(tags[0]) != "" {
		return naming.SanitizeModuleName(tags[0])
	}
	return UntaggedModule
}

// compileTagFilters compiles regex patterns for tag filtering
func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid include-tags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid exclude-tags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

// shouldIncludeOperation decides on the declared tags of an operation: it
// is kept when any tag matches an include pattern (or none are given) and
// no tag matches an exclude pattern.
func shouldIncludeOperation(originalTags []string, include, exclude []*regexp.Regexp) bool {
	included := len(include) == 0
	for _, tag := range originalTags {
		if included {
			break
		}
		for _, r := range include {
			if r.MatchString(tag) {
				included = true
				break
			}
		}
	}
	if !included {
		return false
	}

	for _, tag := range originalTags {
		for _, r := range exclude {
			if r.MatchString(tag) {
				return false
			}
		}
	}
	return true
}
