package rotation

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by rotation operations. Callers classify with errors.Is.
var (
	// ErrValidation marks caller mistakes: non-Monday weeks, equal swap parties,
	// unknown or inactive members, missing actor.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a week already occupied by another planned override,
	// including uniqueness violations raised by the store for concurrent writers.
	ErrConflict = errors.New("conflict")

	// ErrExhausted marks a forward week search that ran past its bound.
	ErrExhausted = errors.New("search exhausted")

	// ErrNotFound marks a week, override, or member that must exist but does not.
	ErrNotFound = errors.New("not found")

	// ErrUseTakeover is returned by mark done when the completer is not the assignee.
	ErrUseTakeover error = &kindError{
		kinds: []error{ErrValidation},
		msg:   "completed-by member must match the assignee for mark done; use mark takeover done for takeover completion",
	}
)

type kindError struct {
	kinds []error
	msg   string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() []error { return e.kinds }

// Errorf formats a message and tags it with kind.
func Errorf(kind error, format string, args ...any) error {
	return &kindError{kinds: []error{kind}, msg: fmt.Sprintf(format, args...)}
}

// errUnknownMember is both a validation error and a not-found error.
var errUnknownMember error = &kindError{
	kinds: []error{ErrValidation, ErrNotFound},
	msg:   "unknown member",
}

// UnknownMember reports a member id that does not exist.
func UnknownMember(field, id string) error {
	return Errorf(errUnknownMember, "%s %s not found", field, id)
}

// Kind returns a short label for the error's category.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
