package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrStateConflict     = errors.New("operation is not allowed in current state")
	ErrNotActionable     = fmt.Errorf("%w: job is not actionable by this user", ErrStateConflict)
	ErrNotFound          = errors.New("requested object does not exist")
	ErrAccessDenied      = errors.New("user does not have access to requested object")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrBadCredentials    = errors.New("invalid username or password")
	ErrDuplicateUsername = fmt.Errorf("%w: username is already taken", ErrValidation)
	ErrPersistence       = errors.New("storage failure")
)

// Error carries a human readable reason alongside one of the sentinel kinds above.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NewError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Reason returns the user facing text of err.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	for _, kind := range []error{ErrDuplicateUsername, ErrNotActionable, ErrValidation, ErrStateConflict, ErrNotFound, ErrAccessDenied, ErrUnauthenticated, ErrBadCredentials} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal server error"
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Reason string `json:"reason"`
}
