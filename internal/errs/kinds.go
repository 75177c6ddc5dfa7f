package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds classify errors for callers. Domain errors wrap exactly one kind so
// errors.Is keeps working through any number of Wrap layers.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed")
	ErrNotFound        = errors.New("not found")
	ErrStateConflict   = errors.New("state conflict")
	ErrStorage         = errors.New("storage failure")
)

// Kind identifies which caller-visible class an error belongs to.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindStateConflict   Kind = "state_conflict"
	KindStorage         Kind = "storage"
	KindInternal        Kind = "internal"
)

// KindOf returns the first kind found in the chain, or KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStateConflict):
		return KindStateConflict
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}

// Validationf builds a validation error with a caller-safe message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// Forbiddenf builds an authorization error.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

// Conflictf builds a state conflict error.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrStateConflict}, args...)...)
}

var sentinelByKind = map[Kind]error{
	KindValidation:      ErrValidation,
	KindUnauthenticated: ErrUnauthenticated,
	KindForbidden:       ErrForbidden,
	KindNotFound:        ErrNotFound,
	KindStateConflict:   ErrStateConflict,
	KindStorage:         ErrStorage,
}

// PublicMessage returns the text after the kind marker so wrapping context
// ("insert damage report: ...") stays server-side. Internal errors never
// expose their text.
func PublicMessage(err error) string {
	sentinel, ok := sentinelByKind[KindOf(err)]
	if !ok {
		return "system error"
	}

	msg := err.Error()
	marker := sentinel.Error() + ": "
	if idx := strings.Index(msg, marker); idx >= 0 {
		return msg[idx+len(marker):]
	}
	return sentinel.Error()
}
