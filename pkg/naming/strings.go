package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

type caseMode int

const (
	modeBoundary caseMode = iota
	modeLowercase
	modeUppercase
)

// SplitWords splits a string into words. Non-alphanumeric runes separate
// words; inside a run of letters and digits a new word starts at a
// lower→upper transition ("userId" → "user", "Id") and before the last
// capital of an acronym followed by lowercase ("XMLHttp" → "XML", "Http").
// Digits inherit the case of the rune before them.
func SplitWords(s string) []string {
	s = RemoveAccents(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	var words []string
	for _, chunk := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words = append(words, splitChunk(chunk)...)
	}
	return words
}

func splitChunk(chunk string) []string {
	var out []string
	init := 0
	mode := modeBoundary
	for i, c := range chunk {
		next, size := utf8.DecodeRuneInString(chunk[i+utf8.RuneLen(c):])
		if size == 0 {
			out = append(out, chunk[init:])
			break
		}
		nextIdx := i + utf8.RuneLen(c)

		nextMode := mode
		switch {
		case unicode.IsLower(c):
			nextMode = modeLowercase
		case unicode.IsUpper(c):
			nextMode = modeUppercase
		}

		switch {
		case nextMode == modeLowercase && unicode.IsUpper(next):
			out = append(out, chunk[init:nextIdx])
			init = nextIdx
			mode = modeBoundary
		case mode == modeUppercase && unicode.IsUpper(c) && unicode.IsLower(next):
			out = append(out, chunk[init:i])
			init = i
			mode = modeBoundary
		default:
			mode = nextMode
		}
	}
	return out
}

// SnakeCase converts a string to snake_case
func SnakeCase(s string) string {
	parts := SplitWords(s)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, "_")
}

// UpperCamelCase converts a string to UpperCamelCase. Each word keeps its
// first letter capitalized and the rest lowercased, so "XMLHttpRequest"
// becomes "XmlHttpRequest".
func UpperCamelCase(s string) string {
	var b strings.Builder
	for _, p := range SplitWords(s) {
		first, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(first))
		b.WriteString(strings.ToLower(p[size:]))
	}
	return b.String()
}
