package naming

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/cloudflavor/skygen/pkg/ir"
)

const maxFunctionTokens = 4

var structuralTokens = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "by": {}, "for": {}, "of": {}, "to": {},
	"and": {}, "or": {}, "with": {}, "from": {}, "in": {}, "on": {}, "via": {},
}

var identifierTokens = map[string]struct{}{
	"id": {}, "ids": {}, "identifier": {}, "account": {}, "accounts": {},
	"zone": {}, "zones": {}, "user": {}, "users": {},
}

// GenerateFunctionName derives a short snake_case function name from an
// operation id. Filler words and generic identifier words are removed, the
// name is cut at its "by" qualifier, tokens repeating the owning module's
// name are stripped and the result is capped at four tokens.
//
// A leading token equal to the HTTP method is dropped unless a "by"
// qualifier follows it, so "getWidgetSettings" becomes "widget_settings"
// while "getWidgetById" stays "get_widget".
func GenerateFunctionName(operationID, method, path string, moduleTokens []string) string {
	method = strings.ToLower(method)
	tokens := splitTokens(SnakeCase(operationID))

	if len(tokens) > 0 && tokens[0] == method && !slices.Contains(tokens[1:], "by") {
		tokens = tokens[1:]
	}
	tokens = truncateAtBy(tokens)

	filtered := tokens[:0:0]
	for idx, tok := range tokens {
		if shouldDropToken(tok, idx) {
			continue
		}
		if n := len(filtered); n > 0 && filtered[n-1] == tok {
			continue
		}
		filtered = append(filtered, tok)
	}
	tokens = filtered

	if len(tokens) == 0 {
		tokens = staticPathTokens(path)
	}

	tokens = trimModulePrefix(tokens, moduleTokens)

	if len(tokens) == 0 {
		tokens = []string{method}
	}
	if len(tokens) > maxFunctionTokens {
		tokens = tokens[:maxFunctionTokens]
	}
	return strings.Join(tokens, "_")
}

func splitTokens(snake string) []string {
	var out []string
	for _, tok := range strings.Split(snake, "_") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func truncateAtBy(tokens []string) []string {
	for i, tok := range tokens {
		if tok == "by" {
			return tokens[:i]
		}
	}
	return tokens
}

func shouldDropToken(tok string, idx int) bool {
	if len(tok) == 1 && !unicode.IsLetter(rune(tok[0])) {
		return true
	}
	if idx == 0 {
		return false
	}
	if _, ok := structuralTokens[tok]; ok {
		return true
	}
	_, ok := identifierTokens[tok]
	return ok
}

func staticPathTokens(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		out = append(out, splitTokens(strings.Trim(SnakeCase(seg), "_"))...)
	}
	return out
}

func trimModulePrefix(tokens, moduleTokens []string) []string {
	if len(moduleTokens) == 0 {
		return dropTrailingArticle(tokens)
	}
	isModule := make(map[string]struct{}, len(moduleTokens))
	for _, m := range moduleTokens {
		isModule[m] = struct{}{}
	}

	for len(tokens) > 1 {
		if _, ok := isModule[tokens[0]]; !ok {
			break
		}
		tokens = tokens[1:]
	}

	allModule := len(tokens) > 0
	for _, tok := range tokens {
		if _, ok := isModule[tok]; !ok {
			allModule = false
			break
		}
	}
	if allModule {
		tokens = nil
	}
	return dropTrailingArticle(tokens)
}

func dropTrailingArticle(tokens []string) []string {
	if n := len(tokens); n > 0 && (tokens[n-1] == "a" || tokens[n-1] == "an") {
		return tokens[:n-1]
	}
	return tokens
}

// FallbackOperationID synthesizes an operation id for operations that do
// not declare one: "<method>_<path segments joined by _>" with braces removed.
func FallbackOperationID(method, path string) string {
	p := strings.Trim(path, "/")
	p = strings.ReplaceAll(p, "/", "_")
	p = strings.NewReplacer("{", "", "}", "").Replace(p)
	return fmt.Sprintf("%s_%s", strings.ToLower(method), p)
}

// NameTracker records the function names already used in one module.
type NameTracker struct {
	used map[string]struct{}
}

// NewNameTracker creates an empty tracker
func NewNameTracker() *NameTracker {
	return &NameTracker{used: map[string]struct{}{}}
}

// Uniquify returns base if unused, then base_<method>, then
// base_<method>_2, base_<method>_3 and so on. The returned name is recorded.
func (t *NameTracker) Uniquify(base, method string) string {
	method = strings.ToLower(method)
	candidate := base
	if t.has(candidate) {
		candidate = base + "_" + method
		for n := 2; t.has(candidate); n++ {
			candidate = fmt.Sprintf("%s_%s_%d", base, method, n)
		}
	}
	t.used[candidate] = struct{}{}
	return candidate
}

func (t *NameTracker) has(name string) bool {
	_, ok := t.used[name]
	return ok
}

// ExtractPathParams scans a path template for balanced {name} placeholders
// in declaration order. Duplicate names and unterminated spans are skipped.
func ExtractPathParams(path string) []ir.PathParam {
	var out []ir.PathParam
	seen := map[string]struct{}{}

	depth := 0
	start := -1
	for i, r := range path {
		switch r {
		case '{':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			name := strings.TrimSpace(path[start:i])
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, ir.PathParam{Name: name, Setter: SanitizeMethodSuffix(name)})
		}
	}
	return out
}
