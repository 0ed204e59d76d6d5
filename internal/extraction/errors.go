package extraction

import (
	"errors"
	"fmt"
)

// ErrorType categorises failures raised while turning a report into records.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAdapterFailure
	ErrorTypeSchemaMismatch
	ErrorTypeFieldNotFound
	ErrorTypeValidationFailure
	ErrorTypeOutputFailure
	ErrorTypeCancelled
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeAdapterFailure:
		return "ADAPTER_FAILURE"
	case ErrorTypeSchemaMismatch:
		return "SCHEMA_MISMATCH"
	case ErrorTypeFieldNotFound:
		return "FIELD_NOT_FOUND"
	case ErrorTypeValidationFailure:
		return "VALIDATION_FAILURE"
	case ErrorTypeOutputFailure:
		return "OUTPUT_FAILURE"
	case ErrorTypeCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether an error of this type is absorbed by the
// engine (degrading to defaults or sentinels) instead of ending the request.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeSchemaMismatch, ErrorTypeFieldNotFound, ErrorTypeValidationFailure:
		return true
	default:
		return false
	}
}

// Error is an extraction failure with enough context to report it per document.
type Error struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	FilePath string    `json:"file_path,omitempty"`
	Field    string    `json:"field,omitempty"`
	Cause    error     `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Field, e.Message)
	}
	if e.FilePath != "" {
		msg += " (" + e.FilePath + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether the error was absorbed locally.
func (e *Error) Recoverable() bool {
	return e.Type.IsRecoverable()
}

// NewError creates a new Error of the given type.
func NewError(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// WrapError wraps err as an Error of the given type.
func WrapError(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Cause: err}
}

// WithFile adds file path information to an existing Error
func (e *Error) WithFile(filePath string) *Error {
	e.FilePath = filePath
	return e
}

// WithField adds the field or column id the error concerns
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given ErrorType.
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}
