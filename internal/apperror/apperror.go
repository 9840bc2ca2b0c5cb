// Package apperror defines the error kinds surfaced by the core and their
// mapping onto HTTP status codes.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	Internal Kind = iota
	ValidationFailed
	Unauthenticated
	NotAuthorized
	NotFound
	DuplicateIdentity
	Transient
)

func (k Kind) String() string {
	switch k {
	case ValidationFailed:
		return "validation_failed"
	case Unauthenticated:
		return "unauthenticated"
	case NotAuthorized:
		return "not_authorized"
	case NotFound:
		return "not_found"
	case DuplicateIdentity:
		return "duplicate_identity"
	case Transient:
		return "transient"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code a response carrying this kind uses.
func (k Kind) HTTPStatus() int {
	switch k {
	case ValidationFailed, DuplicateIdentity:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case NotAuthorized:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to callers; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same kind and message, so a
// sentinel still matches after being re-wrapped with a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// WithCause returns a copy of e carrying err as its cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// PublicMessage returns the caller-facing message for err. Internal errors
// never expose their detail.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal server error"
}

var (
	ErrInvalidID           = New(ValidationFailed, "invalid id")
	ErrInvalidPayload      = New(ValidationFailed, "invalid request payload")
	ErrInvalidInput        = New(ValidationFailed, "title and content are required")
	ErrEmptyContent        = New(ValidationFailed, "content cannot be empty")
	ErrNoFieldsProvided    = New(ValidationFailed, "no fields provided to update")
	ErrInvalidQuery        = New(ValidationFailed, "search query must be at least 2 characters")
	ErrSelfFollowForbidden = New(ValidationFailed, "you cannot follow yourself")
	ErrInvalidCredentials  = New(ValidationFailed, "invalid credentials")

	ErrUnauthenticated = New(Unauthenticated, "not authorized, token missing or invalid")

	ErrNotAuthorized = New(NotAuthorized, "not authorized to perform this action")
	ErrNotConnected  = New(NotAuthorized, "you can only interact with posts of users you follow or who follow you")

	ErrUserNotFound    = New(NotFound, "user not found")
	ErrPostNotFound    = New(NotFound, "post not found")
	ErrCommentNotFound = New(NotFound, "comment not found")
	ErrNoteNotFound    = New(NotFound, "note not found")

	ErrDuplicateIdentity = New(DuplicateIdentity, "user with this email or username already exists")
	ErrUsernameTaken     = New(DuplicateIdentity, "username is already taken")

	ErrTransient = New(Transient, "storage temporarily unavailable, please retry")
)
