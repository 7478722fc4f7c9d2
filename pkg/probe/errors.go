package probe

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
)

// Common errors returned by the retry loop.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNotRetryable is returned when a failure cannot be re-issued.
	ErrNotRetryable = errors.New("probe not retryable")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of probe failures.
type ErrorClass string

const (
	// ErrorClassClient represents non-2xx responses below 500 (404 for a removed entry).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors and client timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRequest represents failures where no request can be re-issued:
	// the URL or request could not be built, or the caller cancelled.
	ErrorClassRequest ErrorClass = "request"
)

// ProbeError describes one failed probe attempt.
type ProbeError struct {
	Identifier catalog.Identifier
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Header     http.Header
	Err        error
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s %s error (status %d): %s: %v",
			e.Identifier, e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("probe %s %s error (status %d): %s",
		e.Identifier, e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProbeError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx status code to an error class.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// classOf extracts the error class of err. Errors that carry no class are
// treated as network failures.
func classOf(err error) ErrorClass {
	var probeErr *ProbeError
	if errors.As(err, &probeErr) {
		return probeErr.ErrorClass
	}
	return ErrorClassNetwork
}

// shouldRetry determines if a failure may be re-issued. A missing catalog
// entry answers 404, so client errors are retried up to the ceiling too.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient, ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
