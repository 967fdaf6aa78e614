package nsapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type ErrorCode string

const (
	ErrorCodeAuth    ErrorCode = "AUTH_ERROR"
	ErrorCodeRate    ErrorCode = "RATE_LIMIT"
	ErrorCodeNetwork ErrorCode = "NETWORK_ERROR"
	ErrorCodeAPI     ErrorCode = "API_ERROR"
	ErrorCodeData    ErrorCode = "DATA_ERROR"
	ErrorCodeTimeout ErrorCode = "TIMEOUT"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

type errorType struct {
	Message  string
	Severity Severity
}

var errorTypes = map[ErrorCode]errorType{
	ErrorCodeAuth:    {"Authentication failed against the NS API", SeverityError},
	ErrorCodeRate:    {"NS API rate limit exceeded", SeverityWarning},
	ErrorCodeNetwork: {"Network error while connecting to the NS API", SeverityError},
	ErrorCodeAPI:     {"NS API returned an error", SeverityError},
	ErrorCodeData:    {"Failed to process NS API data", SeverityError},
	ErrorCodeTimeout: {"NS API request timed out", SeverityWarning},
}

// APIError is the only error the data fetchers hand back to callers. It is created once
// at the point of failure and never cached.
type APIError struct {
	Code      ErrorCode `json:"error"`
	Message   string    `json:"message"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

func NewError(code ErrorCode, details string) *APIError {
	return &APIError{
		Code:      code,
		Message:   errorTypes[code].Message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

func (e *APIError) Severity() Severity {
	return errorTypes[e.Code].Severity
}

func (e *APIError) Log() {
	event := log.Error()
	if e.Severity() == SeverityWarning {
		event = log.Warn()
	}

	event.Str("code", string(e.Code)).Str("details", e.Details).Msg(e.Message)
}

// ClassifyStatus maps a non-200 upstream status code. retryable reports whether
// another attempt could succeed.
func ClassifyStatus(status int, resourceName string) (apiErr *APIError, retryable bool) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(ErrorCodeAuth, fmt.Sprintf("NS API authentication failed for %s (%d)", resourceName, status)), false
	case status == http.StatusTooManyRequests:
		return NewError(ErrorCodeRate, fmt.Sprintf("NS API rate limit exceeded for %s (%d)", resourceName, status)), true
	case status >= http.StatusInternalServerError:
		return NewError(ErrorCodeAPI, fmt.Sprintf("NS API server error for %s (%d)", resourceName, status)), true
	default:
		return NewError(ErrorCodeAPI, fmt.Sprintf("Unexpected HTTP status for %s: %d", resourceName, status)), false
	}
}

// ClassifyTransportError maps a failure to get any response at all. Both kinds are retryable.
func ClassifyTransportError(err error, resourceName string) *APIError {
	if IsTimeout(err) {
		return NewError(ErrorCodeTimeout, fmt.Sprintf("Request for %s timed out: %s", resourceName, err))
	}

	return NewError(ErrorCodeNetwork, fmt.Sprintf("Network error requesting %s: %s", resourceName, err))
}

func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return strings.Contains(err.Error(), "timed out")
}
