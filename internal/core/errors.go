package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Monitoring errors. Both are soft: recorded per signal, the cycle
	// continues.
	ErrTransientFetch = &Error{Code: "TRANSIENT_FETCH", Message: "value provider read failed"}
	ErrEvaluation     = &Error{Code: "EVALUATION", Message: "threshold evaluation failed"}

	// Request errors. Reject the whole request before any work starts.
	// An unknown scenario name is a configuration defect like any other,
	// so ErrUnknownScenario shares the CONFIGURATION code and callers
	// matching errors.Is(err, ErrConfiguration) catch it; the separate
	// value keeps the more specific message.
	ErrConfiguration   = &Error{Code: "CONFIGURATION", Message: "configuration invalid"}
	ErrUnknownScenario = &Error{Code: "CONFIGURATION", Message: "scenario not defined"}

	// Computation sentinel for undefined numeric results; never a panic.
	ErrComputation = &Error{Code: "COMPUTATION", Message: "computation undefined"}

	// Store errors
	ErrSignalNotFound = &Error{Code: "SIGNAL_NOT_FOUND", Message: "signal not found"}
	ErrStoreConflict  = &Error{Code: "STORE_CONFLICT", Message: "concurrent signal update conflict"}

	// Validation errors
	ErrInvalidSignal = &Error{Code: "INVALID_SIGNAL", Message: "signal definition invalid"}

	// Sink errors
	ErrSinkFailed = &Error{Code: "SINK_FAILED", Message: "notification sink failed"}
)
