package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// Kind classifies a failed API call.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindServerError
	KindNetworkError
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindServerError:
		return "server_error"
	case KindNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Error is the normalized failure returned by every Gateway call.
type Error struct {
	Kind Kind
	// Status is the HTTP status, zero when no response was received.
	Status int
	// Message is safe to show to the user.
	Message string
	// Fields holds per-field validation messages keyed by JSON field name.
	Fields map[string][]string
	Err    error

	// serverMessage is set when Message came from the response body.
	serverMessage bool
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match on the package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrUnavailable:
		return e.Kind == KindServerError || e.Kind == KindNetworkError
	}
	return false
}

// KindOf classifies any error; errors that are not *Error are KindUnknown,
// except context expiry which is reported as a network failure.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetworkError
	}
	return KindUnknown
}

// KindForStatus maps an HTTP status to the error taxonomy.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusBadRequest,
		status == http.StatusConflict,
		status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindServerError
	default:
		return KindUnknown
	}
}

// NewValidationError wraps client-side field errors in the same shape the
// server uses for 422 responses.
func NewValidationError(message string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func messageOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.serverMessage && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
