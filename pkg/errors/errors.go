package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the alerting domain. Scheduled ticks log these
// per-rule/per-alert; direct API calls return them to the caller.
var (
	// ErrNotFound indicates an unknown alert or rule id
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition indicates a mutation not allowed from the
	// alert's current status
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNoMoreEscalationLevels indicates the alert exhausted its rule's
	// escalation policy; informational, not a failure
	ErrNoMoreEscalationLevels = errors.New("no more escalation levels")

	// ErrMetricUnavailable indicates a metric path missing from the
	// snapshot or a non-numeric value; rules fail open on it
	ErrMetricUnavailable = errors.New("metric unavailable")

	// ErrTemplateMissing indicates no template matched (type, channel)
	ErrTemplateMissing = errors.New("notification template missing")

	// ErrDeliveryFailed indicates the external communication collaborator
	// rejected a payload; dispatch falls back to the internal sink
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetStatusCode maps domain errors to HTTP status codes for the API layer
func GetStatusCode(err error) int {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Code
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, ErrNoMoreEscalationLevels):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
