package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrOverflow marks an integer literal outside the signed 64-bit range.
var ErrOverflow = errors.New("integer literal overflows 64-bit range")

// ParseError reports the first unrecoverable failure in a document,
// located by its dotted path (for example components.schemas.Foo.properties.bar).
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s: %v", path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// JoinPath renders path segments: keys joined by dots, indexes as [i].
func JoinPath(segments []string) string {
	var b strings.Builder
	for _, seg := range segments {
		if strings.HasPrefix(seg, "[") {
			b.WriteString(seg)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
