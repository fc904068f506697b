// Package apperrors defines the request-scoped error taxonomy of the
// exchange API. Every business failure is an Error with a machine-readable
// Kind; handlers map the kind to an HTTP status through HTTPStatusMap.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error code surfaced to API clients.
type Kind string

// Business failure kinds.
const (
	KindInvalidTarget          Kind = "INVALID_TARGET"
	KindSelfSwapForbidden      Kind = "SELF_SWAP_FORBIDDEN"
	KindInsufficientPoints     Kind = "INSUFFICIENT_POINTS"
	KindInvalidOffer           Kind = "INVALID_OFFER"
	KindNotFound               Kind = "NOT_FOUND"
	KindNotAuthorized          Kind = "NOT_AUTHORIZED"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindDuplicateSwap          Kind = "DUPLICATE_SWAP"
	KindDuplicateEmail         Kind = "DUPLICATE_EMAIL"
	KindBadRequest             Kind = "BAD_REQUEST"
	KindUnauthenticated        Kind = "UNAUTHENTICATED"
	KindInternal               Kind = "INTERNAL_ERROR"
)

// HTTPStatusMap maps error kinds to HTTP status codes.
var HTTPStatusMap = map[Kind]int{
	KindInvalidTarget:          http.StatusBadRequest,
	KindSelfSwapForbidden:      http.StatusForbidden,
	KindInsufficientPoints:     http.StatusBadRequest,
	KindInvalidOffer:           http.StatusBadRequest,
	KindNotFound:               http.StatusNotFound,
	KindNotAuthorized:          http.StatusForbidden,
	KindInvalidStateTransition: http.StatusBadRequest,
	KindDuplicateSwap:          http.StatusConflict,
	KindDuplicateEmail:         http.StatusConflict,
	KindBadRequest:             http.StatusBadRequest,
	KindUnauthenticated:        http.StatusUnauthorized,
	KindInternal:               http.StatusInternalServerError,
}

// Error is a business failure with a kind, a human message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// HTTPStatus returns the HTTP status code for the error's kind.
func (e *Error) HTTPStatus() int {
	if status, ok := HTTPStatusMap[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind from err, or KindInternal when err is not an
// *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
