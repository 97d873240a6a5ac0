package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type numericHint int

const (
	hintNone numericHint = iota
	hintInteger
	hintNumber
)

type numericKind int

const (
	kindSigned numericKind = iota
	kindUnsigned
	kindFloat
)

var (
	maxFloatDec = decimal.NewFromFloat(math.MaxFloat64)
	minFloatDec = decimal.NewFromFloat(-math.MaxFloat64)
	zeroDec     = decimal.Zero
)

// FixNumbers re-examines every number in the tree against its context and
// clamps it into range. A mapping's "type" of integer or number is a hint
// for its own constraint keys and those of descendants that declare no
// type themselves. Size keys are always non-negative integers. Strings in
// the same positions that parse as numbers are converted. The pass is
// idempotent.
func FixNumbers(v any) any {
	return fixValue(v, "", hintNone)
}

func fixValue(v any, key string, hint numericHint) any {
	switch t := v.(type) {
	case json.Number:
		if kind, ok := kindFor(key, hint); ok {
			return clampNumber(t, kind)
		}
	case string:
		if kind, ok := kindFor(key, hint); ok {
			if n, ok := parseNumeric(t, kind); ok {
				return n
			}
		}
	case []any:
		for i := range t {
			t[i] = fixValue(t[i], key, hint)
		}
	case map[string]any:
		next := hint
		if local, hasType := hintFromMap(t); hasType {
			next = local
		}
		for k, child := range t {
			t[k] = fixValue(child, k, next)
		}
	}
	return v
}

func hintFromMap(m map[string]any) (numericHint, bool) {
	ty, ok := m["type"]
	if !ok {
		return hintNone, false
	}
	switch ty {
	case "integer":
		return hintInteger, true
	case "number":
		return hintNumber, true
	}
	return hintNone, true
}

func kindFor(key string, hint numericHint) (numericKind, bool) {
	switch key {
	case "maximum", "minimum", "multipleOf", "enum", "default", "example":
		switch hint {
		case hintInteger:
			return kindSigned, true
		case hintNumber:
			return kindFloat, true
		}
	case "maxLength", "minLength", "maxItems", "minItems", "maxProperties", "minProperties":
		return kindUnsigned, true
	}
	return 0, false
}

func clampNumber(n json.Number, kind numericKind) json.Number {
	lit := string(n)
	d, err := decimal.NewFromString(strings.TrimPrefix(lit, "+"))
	if err != nil {
		return n
	}
	switch kind {
	case kindSigned:
		switch {
		case d.LessThan(minInt64Dec):
			return json.Number(minInt64Dec.String())
		case d.GreaterThan(maxInt64Dec):
			return json.Number(maxInt64Dec.String())
		}
	case kindUnsigned:
		switch {
		case d.LessThan(zeroDec):
			return json.Number("0")
		case d.GreaterThan(maxInt64Dec):
			return json.Number(maxInt64Dec.String())
		case !isIntegerLiteral(lit):
			return json.Number(d.Truncate(0).String())
		}
	case kindFloat:
		switch {
		case d.LessThan(minFloatDec):
			return json.Number(formatFloat(-math.MaxFloat64))
		case d.GreaterThan(maxFloatDec):
			return json.Number(formatFloat(math.MaxFloat64))
		}
	}
	return n
}

func parseNumeric(s string, kind numericKind) (json.Number, bool) {
	s = strings.TrimSpace(s)
	switch kind {
	case kindSigned, kindUnsigned:
		if !isIntegerLiteral(s) {
			return "", false
		}
		d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
		if err != nil {
			return "", false
		}
		return clampNumber(json.Number(d.String()), kind), true
	case kindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return "", false
		}
		return json.Number(formatFloat(f)), true
	}
	return "", false
}
