package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindInvalidToken ErrorKind = "INVALID_TOKEN"
	KindInvalidInput ErrorKind = "INVALID_INPUT"
	KindInternal     ErrorKind = "INTERNAL"
)

// Error is the typed failure returned by every core operation. Message is
// meant to be shown to the caller verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

func InvalidToken(format string, args ...any) *Error {
	return newError(KindInvalidToken, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, format, args...)
}

// Internal wraps an infrastructure failure. The cause keeps its stack for logs
// but is not part of Message.
func Internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: errors.WithStack(err)}
}

// KindOf classifies err. Anything that is not a *Error is INTERNAL.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Server error."
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
