package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies ledger errors so callers can map them to transport
// codes without string matching.
type Kind int

const (
	// KindNotFound means the entity is absent or not owned by the caller.
	KindNotFound Kind = iota + 1
	// KindValidation means the input is caller-correctable.
	KindValidation
	// KindPersistence means the underlying store failed; details are
	// wrapped but should not be leaked to end users.
	KindPersistence
)

// Error is the error type returned by all ledger operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invalidf builds a validation error naming the offending field or value.
func Invalidf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// persistencef wraps a store failure.
func persistencef(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ledger error kind, or 0 for foreign errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

// IsNotFound reports whether err is a ledger not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a ledger validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
