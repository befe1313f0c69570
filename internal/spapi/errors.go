package spapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownStatus     = errors.New("unknown report processing status")
	ErrInvalidTransition = errors.New("invalid report job transition")
)

// maxErrorBody bounds how much of a response body ends up in error messages and logs
const maxErrorBody = 2000

// TransportError is a network level failure: no HTTP response was received
// or its body could not be read. It is the only error class that is retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the Selling Partner API
type APIError struct {
	Op         string
	StatusCode int
	Errors     []ErrorDetail
	Body       string
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, d := range e.Errors {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		return fmt.Sprintf("%s: API error (status %d): %s", e.Op, e.StatusCode, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%s: API error (status %d): %s", e.Op, e.StatusCode, e.Body)
}

func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status, Body: truncate(string(body), maxErrorBody)}
	var parsed struct {
		Errors []ErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Errors = parsed.Errors
	}
	return apiErr
}

// CreateReportError means the report could not be submitted: the response
// was not 2xx, was not JSON, or carried no report id.
type CreateReportError struct {
	ReportType string
	StatusCode int
	Body       string
}

func (e *CreateReportError) Error() string {
	return fmt.Sprintf("failed to create report %s (status %d): %s", e.ReportType, e.StatusCode, e.Body)
}

// JobFailure means the report job ended FATAL or CANCELLED
type JobFailure struct {
	ReportID   string
	ReportType string
	Status     JobState
	ErrorText  string
}

func (e *JobFailure) Error() string {
	if e.ErrorText != "" {
		return fmt.Sprintf("report %s (%s) ended %s: %s", e.ReportID, e.ReportType, e.Status, e.ErrorText)
	}
	return fmt.Sprintf("report %s (%s) ended %s", e.ReportID, e.ReportType, e.Status)
}

// JobTimeout means polling gave up before the report reached a terminal state
type JobTimeout struct {
	ReportID   string
	ReportType string
	LastStatus JobState
	Waited     time.Duration
}

func (e *JobTimeout) Error() string {
	return fmt.Sprintf("report %s (%s) still %s after %s", e.ReportID, e.ReportType, e.LastStatus, e.Waited.Round(time.Second))
}

// IsTransportError reports whether err is, or wraps, a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// truncate keeps at most max characters of s, never splitting a multi-byte one.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
