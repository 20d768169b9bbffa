package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnreachable is returned when no HTTP response was obtained at all
	// (offline, DNS failure, connection refused, timeout).
	ErrUnreachable = errors.New("server unreachable")
)

// APIError is returned for any well-formed non-2xx response. It always
// carries a human-readable message, so callers never have to dig through
// raw response bodies to show something to the user.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Message is the best-effort human-readable error message.
	Message string
	// Body is the raw response body, kept for callers that need more than
	// the extracted message.
	Body []byte
}

// Error returns the extracted message.
func (e *APIError) Error() string {
	return e.Message
}

// TransportError is returned when the request never produced an HTTP
// response.
type TransportError struct {
	// Cause is the underlying error from the HTTP transport.
	Cause error
}

// Error returns a human-readable description of the transport failure.
func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("server unreachable: %v", e.Cause)
	}
	return "server unreachable"
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrUnreachable).
func (e *TransportError) Is(target error) bool {
	return target == ErrUnreachable
}

// errorMessage extracts a human-readable message from an error response
// body. Preference order: a "message" field in a JSON object body, a
// top-level JSON string body, the raw text, and finally a generic
// "Error HTTP <status>" string when the body is blank or a JSON value
// without a usable message.
func errorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Sprintf("Error HTTP %d", status)
	}

	if json.Valid(trimmed) {
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil && payload.Message != "" {
			return payload.Message
		}
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil && s != "" {
			return s
		}
		return fmt.Sprintf("Error HTTP %d", status)
	}

	return string(trimmed)
}
