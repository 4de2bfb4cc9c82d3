package agent

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/kiralabs/kira/plugin/ai"
)

// ErrorClass categorizes provider failures for logs and metrics.
type ErrorClass int

const (
	// ErrorClassTransient indicates a temporary error.
	// Examples: network timeout, rate limit, provider 5xx
	ErrorClassTransient ErrorClass = iota

	// ErrorClassPermanent indicates an error that will not go away on its own.
	// Examples: bad credentials, unknown model, invalid request
	ErrorClassPermanent

	// ErrorClassCanceled indicates the caller gave up.
	ErrorClassCanceled
)

// String returns the string representation of ErrorClass.
func (e ErrorClass) String() string {
	switch e {
	case ErrorClassTransient:
		return "transient"
	case ErrorClassPermanent:
		return "permanent"
	case ErrorClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class      ErrorClass
	Original   error
	StatusCode int // upstream HTTP status, 0 when unknown
}

// Error returns a formatted error message.
func (c *ClassifiedError) Error() string {
	if c.Original == nil {
		return "classified error: class=" + c.Class.String()
	}
	return c.Class.String() + ": " + c.Original.Error()
}

// Unwrap returns the original error for errors.Is/As.
func (c *ClassifiedError) Unwrap() error {
	return c.Original
}

// IsTransient returns true if the error is temporary.
func (c *ClassifiedError) IsTransient() bool {
	return c.Class == ErrorClassTransient
}

// IsPermanent returns true if the error is not temporary.
func (c *ClassifiedError) IsPermanent() bool {
	return c.Class == ErrorClassPermanent
}

// ClassifyError analyzes a provider or command error.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{Class: ErrorClassCanceled, Original: err}
	}

	// 1. Upstream HTTP status
	if status := statusCode(err); status != 0 {
		class := ErrorClassPermanent
		if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
			class = ErrorClassTransient
		}
		return &ClassifiedError{Class: class, Original: err, StatusCode: status}
	}

	// 2. Timeouts and network failures
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCommandTimeout) || isTimeoutError(err) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}
	if isNetworkError(err) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}

	// 3. A blank completion may well succeed on the next call
	if errors.Is(err, ai.ErrEmptyResponse) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}

	// Default to permanent for unknown errors
	return &ClassifiedError{Class: ErrorClassPermanent, Original: err}
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// isNetworkError checks if an error is network-related.
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"network is unreachable",
		"no such host",
		"temporary failure",
		"dial tcp",
		"eof",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if an error message looks like a timeout.
func isTimeoutError(err error) bool {
	errMsg := strings.ToLower(err.Error())
	timeoutPatterns := []string{
		"timeout",
		"deadline exceeded",
		"timed out",
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
