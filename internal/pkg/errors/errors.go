// Package errors provides custom error types and error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes.
const (
	// Fatal errors: abort the run before or during setup.
	CodeData       = "DATA_ERROR"
	CodeValidation = "VALIDATION_ERROR"

	// Per-query errors: the query is recorded as failed and skipped,
	// the run continues.
	CodeTransport = "RETRIEVAL_TRANSPORT_ERROR"
	CodeProtocol  = "RETRIEVAL_PROTOCOL_ERROR"

	// Assertion errors: signal a data-integrity bug upstream.
	CodeMetric = "METRIC_COMPUTATION_ERROR"

	CodeInternal = "INTERNAL_ERROR"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the error code of err, or CodeInternal if err carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// IsRetrievalFailure reports whether err is a per-query retrieval error
// (transport or protocol). Such errors exclude the query from aggregates
// without aborting the run.
func IsRetrievalFailure(err error) bool {
	code := CodeOf(err)
	return code == CodeTransport || code == CodeProtocol
}

// Convenience constructors.

// DataError creates a fatal data error.
func DataError(message string) *AppError {
	return New(CodeData, message)
}

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// TransportError creates a retrieval transport error.
func TransportError(message string, err error) *AppError {
	return Wrap(CodeTransport, message, err)
}

// ProtocolError creates a retrieval protocol error.
func ProtocolError(message string, err error) *AppError {
	return Wrap(CodeProtocol, message, err)
}

// MetricError creates a metric computation error.
func MetricError(message string) *AppError {
	return New(CodeMetric, message)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}
