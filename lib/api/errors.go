package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrAPI        = errors.New("api error")
	ErrParse      = errors.New("parse error")
	ErrJobFailed  = errors.New("job failed")
	ErrValidation = errors.New("validation error")
)

// APIError is a non-2xx response from the service carrying a JSON
// error body. The message is synthesized from the status code; the
// server-reported error and details are always included verbatim.
type APIError struct {
	StatusCode int
	Action     string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case 402:
		return fmt.Sprintf("Payment Required: Failed to %s. %s - %s", e.Action, e.Message, e.Details)
	case 403:
		return fmt.Sprintf("Website Not Supported: Failed to %s. %s - %s", e.Action, e.Message, e.Details)
	case 408:
		return fmt.Sprintf("Request Timeout: Failed to %s as the request timed out. %s - %s", e.Action, e.Message, e.Details)
	case 409:
		return fmt.Sprintf("Conflict: Failed to %s due to a conflict. %s - %s", e.Action, e.Message, e.Details)
	case 500:
		return fmt.Sprintf("Internal Server Error: Failed to %s. %s - %s", e.Action, e.Message, e.Details)
	default:
		return fmt.Sprintf("Unexpected error during %s: Status code %d. %s - %s", e.Action, e.StatusCode, e.Message, e.Details)
	}
}

func (e *APIError) Unwrap() error { return ErrAPI }

// ParseError is a response body that was not valid JSON where JSON
// was required. Never retried.
type ParseError struct {
	Action     string
	StatusCode int
	Cause      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response as JSON during %s (status code %d): %v", e.Action, e.StatusCode, e.Cause)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// JobFailedError is a job that reached a terminal non-success status,
// including statuses the client does not recognize.
type JobFailedError struct {
	ID     string
	Status string
	Detail string
}

func (e *JobFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("job %s failed or was stopped, status: %s, error: %s", e.ID, e.Status, e.Detail)
	}
	return fmt.Sprintf("job %s failed or was stopped, status: %s", e.ID, e.Status)
}

func (e *JobFailedError) Unwrap() error { return ErrJobFailed }

// ValidationError is a caller-supplied argument failing a precondition
// check. Raised before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }
