package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// jsonReader builds the value tree token by token so that a failure can be
// reported with the path of the value being read.
type jsonReader struct {
	dec  *json.Decoder
	path []string
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	r := &jsonReader{dec: dec}

	v, err := r.next()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("unexpected data after top-level value")}
	}
	return v, nil
}

func (r *jsonReader) fail(err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		err = fmt.Errorf("%w (offset %d)", err, syn.Offset)
	}
	return &ParseError{Path: JoinPath(r.path), Err: err}
}

func (r *jsonReader) next() (any, error) {
	tok, err := r.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, r.fail(err)
	}
	return r.value(tok)
}

func (r *jsonReader) value(tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return r.object()
		case '[':
			return r.array()
		}
		return nil, r.fail(fmt.Errorf("unexpected delimiter %q", t))
	case json.Number:
		if err := checkIntegerRange(string(t)); err != nil {
			return nil, r.fail(err)
		}
		return finiteNumber(t), nil
	case string, bool, nil:
		return t, nil
	}
	return nil, r.fail(fmt.Errorf("unexpected token %v", tok))
}

func (r *jsonReader) object() (any, error) {
	obj := map[string]any{}
	for r.dec.More() {
		kt, err := r.dec.Token()
		if err != nil {
			return nil, r.fail(err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, r.fail(fmt.Errorf("expected object key, found %v", kt))
		}
		r.path = append(r.path, key)
		v, err := r.next()
		if err != nil {
			return nil, err
		}
		r.path = r.path[:len(r.path)-1]
		obj[key] = v
	}
	if _, err := r.dec.Token(); err != nil {
		return nil, r.fail(err)
	}
	return obj, nil
}

func (r *jsonReader) array() (any, error) {
	arr := []any{}
	for i := 0; r.dec.More(); i++ {
		r.path = append(r.path, indexSegment(i))
		v, err := r.next()
		if err != nil {
			return nil, err
		}
		r.path = r.path[:len(r.path)-1]
		arr = append(arr, v)
	}
	if _, err := r.dec.Token(); err != nil {
		return nil, r.fail(err)
	}
	return arr, nil
}

// checkIntegerRange rejects integer literals that do not fit in int64.
// Float literals are left to the numeric pass.
func checkIntegerRange(lit string) error {
	if !isIntegerLiteral(lit) {
		return nil
	}
	if _, err := strconv.ParseInt(lit, 10, 64); err != nil {
		return fmt.Errorf("%w: %s", ErrOverflow, lit)
	}
	return nil
}

// finiteNumber clamps float literals beyond the float64 range to the
// largest finite value.
func finiteNumber(n json.Number) json.Number {
	if isIntegerLiteral(string(n)) {
		return n
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && math.IsInf(f, 0) {
		return json.Number(formatFloat(clampFinite(f)))
	}
	return n
}

func isIntegerLiteral(lit string) bool {
	if lit == "" {
		return false
	}
	i := 0
	if lit[0] == '-' || lit[0] == '+' {
		i = 1
	}
	if i == len(lit) {
		return false
	}
	for ; i < len(lit); i++ {
		if !isDigit(lit[i]) {
			return false
		}
	}
	return true
}
