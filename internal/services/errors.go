package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Transports map kinds onto status codes.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindToken
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindToken:
		return "token"
	case KindNotFound:
		return "not_found"
	default:
		return "unexpected"
	}
}

// Error is the error type returned by every service operation. Message is
// safe to show to callers; Err holds the internal cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &Error{Kind: KindConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func ValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func ConflictError(message string, err error) error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func AuthenticationError(message string) error {
	return &Error{Kind: KindAuthentication, Message: message}
}

func AuthorizationError(message string) error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func TokenError(message string, err error) error {
	return &Error{Kind: KindToken, Message: message, Err: err}
}

func NotFoundError(message string, err error) error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

func UnexpectedError(message string, err error) error {
	return &Error{Kind: KindUnexpected, Message: message, Err: err}
}

// KindOf reports the kind of err. Errors that did not come from this package
// are unexpected.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUnexpected
}

// Outcome is a short label for metrics: "success" for nil, the kind otherwise.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}
