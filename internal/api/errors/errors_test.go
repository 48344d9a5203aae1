package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"speech-transcription/internal/app/transcription"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind transcription.Kind
		code string
		want int
	}{
		{transcription.KindValidation, transcription.CodeUnsupportedFormat, http.StatusUnprocessableEntity},
		{transcription.KindValidation, transcription.CodeEmptyFile, http.StatusUnprocessableEntity},
		{transcription.KindValidation, transcription.CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{transcription.KindStorage, transcription.CodeStorageFailed, http.StatusInsufficientStorage},
		{transcription.KindDecode, transcription.CodeDecodeFailed, http.StatusBadRequest},
		{transcription.KindInference, transcription.CodeInferenceFailed, http.StatusInternalServerError},
		{transcription.KindEngineUnavailable, transcription.CodeEngineUnavailable, http.StatusServiceUnavailable},
		{transcription.KindEngineLoading, transcription.CodeEngineLoading, http.StatusServiceUnavailable},
		{transcription.KindTimeout, transcription.CodeTimeout, http.StatusGatewayTimeout},
		{transcription.KindCanceled, transcription.CodeCanceled, StatusClientClosedRequest},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.code, func(t *testing.T) {
			apiErr := FromTranscription(transcription.NewError(tt.kind, tt.code, "boom", nil))
			assert.Equal(t, tt.want, apiErr.HTTPStatus())
			assert.Equal(t, string(tt.kind), string(apiErr.Kind))
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, "boom", apiErr.Error())
		})
	}
}

func TestFromTranscriptionHidesCause(t *testing.T) {
	cause := assert.AnError
	apiErr := FromTranscription(transcription.NewError(transcription.KindInference, transcription.CodeInferenceFailed, "transcription failed", cause))
	assert.Equal(t, "transcription failed", apiErr.Message)
	assert.NotContains(t, apiErr.Message, cause.Error())

	assert.Nil(t, FromTranscription(nil))
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewBadRequestError("x").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewInternalError("x").HTTPStatus())
	assert.Equal(t, http.StatusRequestEntityTooLarge, NewPayloadTooLargeError("x").HTTPStatus())

	v := NewValidationError("bad form", map[string]string{"file": "is required"})
	assert.Equal(t, http.StatusUnprocessableEntity, v.HTTPStatus())
	assert.Equal(t, "is required", v.Details["file"])
}
