package resolver

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRef       = errors.New("invalid reference")
	ErrPointerEscape    = errors.New("malformed pointer escape")
	ErrMissingTarget    = errors.New("reference target not found")
	ErrTypeMismatch     = errors.New("reference target has unexpected type")
	ErrCycleDetected    = errors.New("reference cycle detected")
	ErrMaxDepthExceeded = errors.New("maximum reference depth exceeded")
)

// Error ties a resolution failure to the reference that caused it.
// Kind is one of the sentinel errors above.
type Error struct {
	Kind   error
	Ref    string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %s (%s)", e.Kind, e.Ref, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Ref)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, ref, detail string) *Error {
	return &Error{Kind: kind, Ref: ref, Detail: detail}
}
