package wrenbase

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors returned by the SDK. These can be used with errors.Is()
// to check for specific error conditions.
//
// Note that Track never returns an error: usage analytics is best-effort
// and capacity rejections are deliberate silent drops, observable only
// through an Observer.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClientClosed is returned when an operation is attempted on a
	// closed client.
	ErrClientClosed = errors.New("client is closed")

	// ErrNoSession is returned by a SessionProvider when no user is
	// signed in. The analytics pipeline treats it as "anonymous visitor",
	// not as a failure.
	ErrNoSession = errors.New("no active session")

	// ErrServerError is returned for 5xx server responses.
	ErrServerError = errors.New("server error")
)

// DropReason explains why Track discarded an event instead of queueing it.
// Silent dropping is a deliberate design choice for best-effort telemetry;
// DropReason makes the outcome observable (via Observer) without turning
// it into an error.
type DropReason int

const (
	// DropDisabled means analytics is disabled by configuration.
	DropDisabled DropReason = iota
	// DropQueueFull means the queue already holds MaxQueueSize events.
	DropQueueFull
)

// String returns the string representation of the drop reason.
func (r DropReason) String() string {
	switch r {
	case DropDisabled:
		return "disabled"
	case DropQueueFull:
		return "queue_full"
	default:
		return "unknown"
	}
}

// APIError represents an error response from the Wrenbase API.
// It carries the HTTP status code and the server-provided message.
//
// Example:
//
//	var apiErr *wrenbase.APIError
//	if errors.As(err, &apiErr) {
//	    log.Printf("server said %d: %s", apiErr.StatusCode, apiErr.Message)
//	}
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
	// Message is a human-readable error description.
	Message string `json:"message"`
	// Code is an optional machine-readable error code from the server.
	Code string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is implements errors.Is so 5xx responses match ErrServerError.
func (e *APIError) Is(target error) bool {
	return target == ErrServerError && e.StatusCode >= 500
}

// parseAPIError parses an error response body into an APIError, falling
// back to the raw body as the message when it is not valid JSON.
func parseAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}
	if len(body) == 0 {
		apiErr.Message = fmt.Sprintf("HTTP %d error", statusCode)
		return apiErr
	}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = string(body)
	}
	return apiErr
}
