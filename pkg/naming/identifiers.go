package naming

import (
	"strings"
)

// rustKeywords holds strict, reserved and weak keywords of the target language.
var rustKeywords = map[string]struct{}{
	"as": {}, "break": {}, "const": {}, "continue": {}, "crate": {}, "else": {},
	"enum": {}, "extern": {}, "false": {}, "fn": {}, "for": {}, "if": {},
	"impl": {}, "in": {}, "let": {}, "loop": {}, "match": {}, "mod": {},
	"move": {}, "mut": {}, "pub": {}, "ref": {}, "return": {}, "self": {},
	"Self": {}, "static": {}, "struct": {}, "super": {}, "trait": {}, "true": {},
	"type": {}, "unsafe": {}, "use": {}, "where": {}, "while": {}, "async": {},
	"await": {}, "dyn": {}, "abstract": {}, "become": {}, "box": {}, "do": {},
	"final": {}, "macro": {}, "override": {}, "priv": {}, "try": {},
	"typeof": {}, "unsized": {}, "virtual": {}, "yield": {},
}

// IsKeyword reports whether name is reserved in the target language.
func IsKeyword(name string) bool {
	_, ok := rustKeywords[name]
	return ok
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// SanitizeIdentifier makes an already snake-cased field or parameter name
// safe to emit: empty names become "field", a leading digit gets a "field_"
// prefix and keywords use the raw identifier form ("r#type").
func SanitizeIdentifier(value string) string {
	ident := value
	if ident == "" {
		ident = "field"
	}
	if startsWithDigit(ident) {
		ident = "field_" + ident
	}
	if IsKeyword(ident) {
		ident = "r#" + ident
	}
	return ident
}

// SanitizeFieldName snake-cases a wire name and sanitizes it.
func SanitizeFieldName(raw string) string {
	return SanitizeIdentifier(SnakeCase(raw))
}

// SanitizeMethodSuffix derives a setter name. Raw identifiers cannot appear
// inside a method name, so keywords get a "_param" suffix instead.
func SanitizeMethodSuffix(value string) string {
	ident := strings.Trim(SnakeCase(value), "_")
	if ident == "" {
		ident = "param"
	}
	if startsWithDigit(ident) {
		ident = "param_" + ident
	}
	if IsKeyword(ident) {
		ident += "_param"
	}
	return ident
}

// SanitizeFunctionName escapes a generated function name. Keywords get an
// "_fn" suffix and a leading digit an "fn_" prefix.
func SanitizeFunctionName(name string) string {
	if name == "" {
		return "call"
	}
	if startsWithDigit(name) {
		name = "fn_" + name
	}
	if IsKeyword(name) {
		name += "_fn"
	}
	return name
}

// SanitizeModuleName derives the module slug for a schema name.
func SanitizeModuleName(raw string) string {
	module := SnakeCase(raw)
	if module == "" {
		module = "model"
	}
	if startsWithDigit(module) {
		module = "model_" + module
	}
	if IsKeyword(module) {
		module += "_mod"
	}
	return module
}

// SanitizeStructName derives the type name for a schema name.
func SanitizeStructName(raw string) string {
	name := UpperCamelCase(raw)
	if name == "" {
		return "Model"
	}
	if startsWithDigit(name) {
		name = "Struct" + name
	}
	if IsKeyword(name) {
		name += "Struct"
	}
	return name
}
