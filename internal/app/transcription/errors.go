package transcription

import (
	"context"
	"errors"
	"fmt"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/app/tempfile"
)

// Kind classifies a pipeline failure. The HTTP layer maps each kind to a status.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindStorage           Kind = "storage"
	KindDecode            Kind = "decode"
	KindInference         Kind = "inference"
	KindEngineUnavailable Kind = "engine_unavailable"
	KindEngineLoading     Kind = "engine_loading"
	KindTimeout           Kind = "timeout"
	KindCanceled          Kind = "canceled"
)

// Machine readable error codes
const (
	CodeUnsupportedFormat = "unsupported_format"
	CodeEmptyFile         = "empty_file"
	CodePayloadTooLarge   = "payload_too_large"
	CodeStorageFailed     = "storage_failed"
	CodeDecodeFailed      = "decode_failed"
	CodeInferenceFailed   = "inference_failed"
	CodeEngineUnavailable = "engine_unavailable"
	CodeEngineLoading     = "engine_loading"
	CodeTimeout           = "request_timeout"
	CodeCanceled          = "request_canceled"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: KindDecode}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// NewError creates a classified error
func NewError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func validationError(vr audio.ValidationResult) *Error {
	code := CodeUnsupportedFormat
	switch vr.Reason {
	case audio.ReasonEmpty:
		code = CodeEmptyFile
	case audio.ReasonOversized:
		code = CodePayloadTooLarge
	}
	return NewError(KindValidation, code, vr.Message, nil)
}

// classify maps an error from the storage, decode or inference stage. parent
// is the caller's context: its cancellation means the client went away,
// while a deadline on the derived context is the request timeout.
func classify(parent context.Context, err error) *Error {
	var (
		te      *Error
		initErr *inference.InitError
		infErr  *inference.InferenceError
		decErr  *audio.DecodeError
		stErr   *tempfile.StorageError
	)
	switch {
	case errors.As(err, &te):
		return te
	case errors.Is(parent.Err(), context.Canceled):
		return NewError(KindCanceled, CodeCanceled, "request was canceled", err)
	case errors.Is(err, tempfile.ErrTooLarge):
		return NewError(KindValidation, CodePayloadTooLarge, "file exceeds the maximum upload size", err)
	case errors.As(err, &stErr):
		return NewError(KindStorage, CodeStorageFailed, "could not store the uploaded file", err)
	case errors.As(err, &decErr):
		return NewError(KindDecode, CodeDecodeFailed, decErr.Error(), err)
	case errors.As(err, &initErr), errors.Is(err, inference.ErrClosed):
		return NewError(KindEngineUnavailable, CodeEngineUnavailable, "transcription engine is unavailable", err)
	case errors.Is(err, inference.ErrLoading) && errors.Is(err, context.DeadlineExceeded):
		return NewError(KindTimeout, CodeTimeout, "transcription timed out waiting for the model to load", err)
	case errors.Is(err, inference.ErrLoading):
		return NewError(KindEngineLoading, CodeEngineLoading, "transcription model is still loading, retry shortly", err)
	case errors.As(err, &infErr):
		return NewError(KindInference, CodeInferenceFailed, "transcription failed", err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(KindTimeout, CodeTimeout, "transcription timed out", err)
	case errors.Is(err, context.Canceled):
		return NewError(KindCanceled, CodeCanceled, "request was canceled", err)
	default:
		return NewError(KindInference, CodeInferenceFailed, "transcription failed", err)
	}
}
