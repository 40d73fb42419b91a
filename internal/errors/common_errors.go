package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Report engine error kinds
	ErrTypeInput         ErrorType = "INPUT"
	ErrTypeSchema        ErrorType = "SCHEMA"
	ErrTypeRender        ErrorType = "RENDER"
	ErrTypeDocumentBuild ErrorType = "DOCUMENT_BUILD"

	// Host side error kinds
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeInternal   ErrorType = "INTERNAL"
)

// Fatal reports whether errors of this type abort the operation that raised
// them. SCHEMA and RENDER conditions are collected as warnings instead.
func (t ErrorType) Fatal() bool {
	switch t {
	case ErrTypeSchema, ErrTypeRender:
		return false
	default:
		return true
	}
}

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInputError creates an error for a record set that is structurally
// invalid (not a sequence of mappings) or exceeds the accepted size.
func NewInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInput, message, cause)
}

// NewSchemaWarning creates a non-fatal warning for an expected column that
// the record set does not carry.
func NewSchemaWarning(column string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("expected column %q not present", column), nil).
		WithContext("column", column)
}

// NewRenderDegraded creates a non-fatal warning for an optional asset, cell
// or section that was replaced by a placeholder.
func NewRenderDegraded(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}

// NewDocumentBuildError creates an error for a document that could not be
// produced as a byte stream at all.
func NewDocumentBuildError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDocumentBuild, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsInputError reports whether err is an INPUT error
func IsInputError(err error) bool {
	return TypeOf(err) == ErrTypeInput
}

// IsSchemaWarning reports whether err is a SCHEMA warning
func IsSchemaWarning(err error) bool {
	return TypeOf(err) == ErrTypeSchema
}

// IsRenderDegraded reports whether err is a RENDER warning
func IsRenderDegraded(err error) bool {
	return TypeOf(err) == ErrTypeRender
}

// IsDocumentBuildError reports whether err is a DOCUMENT_BUILD error
func IsDocumentBuildError(err error) bool {
	return TypeOf(err) == ErrTypeDocumentBuild
}

// IsStorageError reports whether err is a STORAGE error
func IsStorageError(err error) bool {
	return TypeOf(err) == ErrTypeStorage
}
