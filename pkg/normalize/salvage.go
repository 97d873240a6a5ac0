package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxInt64Dec = decimal.NewFromInt(math.MaxInt64)
	minInt64Dec = decimal.NewFromInt(math.MinInt64)
)

// ClampOverflowingLiterals rewrites integer tokens that do not fit in a
// signed 64-bit integer to the nearest bound. A token is an optional sign
// followed by digits, preceded (ignoring whitespace) by ':', ',', '[', '{',
// '-' or the start of input, and not followed by '.', 'e' or 'E'. The
// second result is false when nothing was rewritten.
func ClampOverflowingLiterals(input string) (string, bool) {
	var out strings.Builder
	changed := false
	lastEmit := 0
	n := len(input)

	for cursor := 0; cursor < n; {
		c := input[cursor]
		if !isNumberLead(c) {
			cursor++
			continue
		}
		start := cursor
		idx := cursor
		if c == '+' || c == '-' {
			idx++
			if idx >= n || !isDigit(input[idx]) {
				cursor++
				continue
			}
		}
		digitsStart := idx
		for idx < n && isDigit(input[idx]) {
			idx++
		}
		if digitsStart == idx {
			cursor++
			continue
		}
		if idx < n && (input[idx] == '.' || input[idx] == 'e' || input[idx] == 'E') {
			cursor++
			continue
		}
		if prev, ok := previousNonSpace(input, start); ok {
			switch prev {
			case ':', ',', '[', '{', '-':
			default:
				cursor++
				continue
			}
		}
		if clamped, ok := clampLiteral(input[start:idx]); ok {
			if !changed {
				out.Grow(n)
			}
			out.WriteString(input[lastEmit:start])
			out.WriteString(clamped)
			lastEmit = idx
			changed = true
		}
		cursor = idx
	}

	if !changed {
		return input, false
	}
	out.WriteString(input[lastEmit:])
	return out.String(), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumberLead(c byte) bool { return isDigit(c) || c == '+' || c == '-' }

func previousNonSpace(s string, start int) (byte, bool) {
	for i := start - 1; i >= 0; i-- {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			continue
		}
		return s[i], true
	}
	return 0, false
}

// clampLiteral returns the bound a token clamps to, if it is out of range.
func clampLiteral(token string) (string, bool) {
	cleaned := strings.ReplaceAll(token, "_", "")
	if cleaned == "" {
		return "", false
	}
	v, err := decimal.NewFromString(strings.TrimPrefix(cleaned, "+"))
	if err != nil {
		if strings.HasPrefix(cleaned, "-") {
			return strconv.FormatInt(math.MinInt64, 10), true
		}
		return strconv.FormatInt(math.MaxInt64, 10), true
	}
	switch {
	case v.LessThan(minInt64Dec):
		return strconv.FormatInt(math.MinInt64, 10), true
	case v.GreaterThan(maxInt64Dec):
		return strconv.FormatInt(math.MaxInt64, 10), true
	}
	return "", false
}
