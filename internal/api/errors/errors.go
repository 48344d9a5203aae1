package errors

import (
	"net/http"

	"speech-transcription/internal/app/transcription"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindStorage           ErrorKind = "storage"
	KindDecode            ErrorKind = "decode"
	KindInference         ErrorKind = "inference"
	KindEngineUnavailable ErrorKind = "engine_unavailable"
	KindEngineLoading     ErrorKind = "engine_loading"
	KindTimeout           ErrorKind = "timeout"
	KindCanceled          ErrorKind = "canceled"
	KindBadRequest        ErrorKind = "bad_request"
	KindNotFound          ErrorKind = "not_found"
	KindInternal          ErrorKind = "internal"
)

// StatusClientClosedRequest is the non-standard status used when the client
// went away before the response was ready.
const StatusClientClosedRequest = 499

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		if e.Code == transcription.CodePayloadTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusUnprocessableEntity
	case KindStorage:
		return http.StatusInsufficientStorage
	case KindDecode, KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindEngineUnavailable, KindEngineLoading:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// FromTranscription converts a classified pipeline failure. Wrapped causes
// stay server-side; only the kind, code and message reach the client.
func FromTranscription(err *transcription.Error) *APIError {
	if err == nil {
		return nil
	}
	return &APIError{
		Kind:    ErrorKind(err.Kind),
		Code:    err.Code,
		Message: err.Message,
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewPayloadTooLargeError creates a validation error that maps to 413
func NewPayloadTooLargeError(message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Code:    transcription.CodePayloadTooLarge,
		Message: message,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}
