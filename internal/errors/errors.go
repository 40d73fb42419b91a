package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidRecords   = New(http.StatusBadRequest, "INVALID_RECORDS", "Record set is malformed")

	// 404 Not Found
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrNoPredictionData = New(http.StatusNotFound, "NO_PREDICTION_DATA", "No prediction data found for user")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrDocumentBuild  = New(http.StatusInternalServerError, "DOCUMENT_BUILD_FAILED", "Report document could not be produced")
	ErrExportFailed   = New(http.StatusInternalServerError, "EXPORT_FAILED", "Tabular export could not be produced")

	// 502 Bad Gateway
	ErrRecordSource = New(http.StatusBadGateway, "RECORD_SOURCE_FAILED", "Prediction records could not be fetched")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(ErrInvalidRequest.StatusCode, ErrInvalidRequest.ErrorCode, ErrInvalidRequest.Message, err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		ErrValidationFailed.StatusCode,
		ErrValidationFailed.ErrorCode,
		ErrValidationFailed.Message,
		ValidationErrors{Errors: errors},
	)
}

// FromAppError maps an AppError kind to the API error a client sees
func FromAppError(appErr *AppError) *APIError {
	switch appErr.Type {
	case ErrTypeInput:
		return NewWithDetails(http.StatusBadRequest, ErrInvalidRecords.ErrorCode, ErrInvalidRecords.Message, appErr.Error())
	case ErrTypeValidation:
		return NewWithDetails(http.StatusBadRequest, ErrValidationFailed.ErrorCode, appErr.Message, appErr.Context)
	case ErrTypeNotFound:
		return New(http.StatusNotFound, ErrNotFound.ErrorCode, appErr.Message)
	case ErrTypeStorage:
		return ErrRecordSource
	case ErrTypeDocumentBuild:
		return ErrDocumentBuild
	default:
		return ErrInternalServer
	}
}
