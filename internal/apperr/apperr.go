// Package apperr defines the error kinds returned by the receipt services.
// Callers branch on kind with errors.Is; the message is safe to show to clients.
package apperr

import "errors"

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrUpstream      = errors.New("upstream error")
	ErrConfiguration = errors.New("configuration error")
)

type Error struct {
	kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind error, msg string, err error) error {
	return &Error{kind: kind, Message: msg, Err: err}
}

func Validation(msg string) error {
	return &Error{kind: ErrValidation, Message: msg}
}

func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{kind: ErrForbidden, Message: msg}
}

func Upstream(msg string, err error) error {
	return &Error{kind: ErrUpstream, Message: msg, Err: err}
}

func Configuration(msg string) error {
	return &Error{kind: ErrConfiguration, Message: msg}
}

// Message returns the client-facing message of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
