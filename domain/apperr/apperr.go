// Package apperr provides the coded error taxonomy shared by the trigger engine.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an AppError.
type Code int

const (
	CodeUnknown Code = iota
	// CodeInvalidRegion: geometry or color range violates region invariants.
	CodeInvalidRegion
	// CodeCaptureFailure: transient frame capture error (off-screen, zero size).
	CodeCaptureFailure
	// CodeOutOfBounds: a sample point lies outside the capturable surface.
	CodeOutOfBounds
	// CodeNotFound: unknown region index.
	CodeNotFound
	CodeInvalidConfig
	// CodeUnsupported: the platform lacks the requested OS primitive.
	CodeUnsupported
)

func (c Code) String() string {
	switch c {
	case CodeInvalidRegion:
		return "invalid_region"
	case CodeCaptureFailure:
		return "capture_failure"
	case CodeOutOfBounds:
		return "out_of_bounds"
	case CodeNotFound:
		return "not_found"
	case CodeInvalidConfig:
		return "invalid_config"
	case CodeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// AppError is the base error type with structured code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error chain carries a specific code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
