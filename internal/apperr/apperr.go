package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so HTTP handlers can map it to a status code and
// callers can tell retryable conditions (rate limiting) from terminal ones.
type Kind string

const (
	Unauthenticated       Kind = "unauthenticated"
	InvalidCredential     Kind = "invalid_credential"
	Forbidden             Kind = "forbidden"
	NotFound              Kind = "not_found"
	AssetNotFound         Kind = "asset_not_found"
	VersionMismatch       Kind = "version_mismatch"
	MalformedRequest      Kind = "malformed_request"
	Conflict              Kind = "conflict"
	ProviderRateLimited   Kind = "provider_rate_limited"
	ProviderMisconfigured Kind = "provider_misconfigured"
	Internal              Kind = "internal"
)

// Error carries a classification alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a caller-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err, or Internal if unclassified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is lets errors.Is match two classified errors by kind. Messages are
// deliberately ignored so sentinel comparisons stay stable.
func (e *Error) Is(target error) bool {
	var ae *Error
	if errors.As(target, &ae) {
		return e.Kind == ae.Kind
	}
	return false
}

// HTTPStatus maps a classification to the status code surfaced to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated, InvalidCredential:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound, AssetNotFound:
		return http.StatusNotFound
	case VersionMismatch, MalformedRequest:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case ProviderRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing message for err without leaking internal
// details of unclassified failures.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}
