package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConnectivity   = errors.New("connectivity failure")
	ErrMalformed      = errors.New("malformed payload")
	ErrUpstreamStatus = errors.New("upstream error status")
)

// APIError represents a structured error for backend interactions.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status when applicable, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError creates an error for invalid local input.
// Validation is short-circuited client-side: no request is sent.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Err:     ErrInvalidRequest,
	}
}

// NewConnectivityError creates an error for requests that got no response.
func NewConnectivityError(err error) *APIError {
	return &APIError{
		Code:    "CONNECTIVITY",
		Message: "could not reach the store backend",
		Err:     fmt.Errorf("%w: %v", ErrConnectivity, err),
	}
}

// NewStatusError creates an error for a non-success HTTP status.
// message should come from the response body's detail/error field when
// present; pass "" to use a generic status-coded fallback.
func NewStatusError(statusCode int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", statusCode)
	}
	return &APIError{
		Code:       "UPSTREAM_STATUS",
		Message:    message,
		StatusCode: statusCode,
		Err:        ErrUpstreamStatus,
	}
}

// NewUnauthorizedError creates a 401-class error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewNotFoundError creates a 404-class error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewMalformedError creates an error for responses that decoded but do
// not have the expected shape. Treated the same as a failure response.
func NewMalformedError(detail string) *APIError {
	return &APIError{
		Code:    "MALFORMED_PAYLOAD",
		Message: detail,
		Err:     ErrMalformed,
	}
}
