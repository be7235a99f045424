package usecase

import "errors"

// Error kinds. Every error returned by a usecase wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
	ErrNotification = errors.New("notification failed")
)

var (
	ErrTokenNotFound = errors.New("password reset token not found")
	ErrTokenExpired  = errors.New("password reset token has expired")
)

// Error carries a caller-safe Message next to the internal cause.
type Error struct {
	Kind    error
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func validationError(field, message string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func conflictError(field, message string, cause error) error {
	return &Error{Kind: ErrConflict, Field: field, Message: message, cause: cause}
}

func notFoundError(message string, cause error) error {
	return &Error{Kind: ErrNotFound, Message: message, cause: cause}
}

func upstreamError(message string, cause error) error {
	return &Error{Kind: ErrUpstream, Message: message, cause: cause}
}

func notificationError(message string, cause error) *Error {
	return &Error{Kind: ErrNotification, Message: message, cause: cause}
}
