package dto

import (
	"mime/multipart"

	"speech-transcription/internal/api/errors"
	"speech-transcription/internal/app/transcription"
)

// TranscribeForm is the multipart body of POST /transcribe
type TranscribeForm struct {
	File *multipart.FileHeader `form:"file" binding:"required" swaggerignore:"true"`
}

// TranscriptionResponse is returned by POST /transcribe. Transcription is
// present on success, Error on failure.
type TranscriptionResponse struct {
	Filename      string           `json:"filename" example:"test.wav"`
	Transcription *string          `json:"transcription,omitempty" example:"hello world"`
	Status        string           `json:"status" enums:"success,error" example:"success"`
	Error         *errors.APIError `json:"error,omitempty"`
}

// ToTranscriptionResponse converts a pipeline result to the response DTO.
// The caller stamps the request ID onto Error.
func ToTranscriptionResponse(res transcription.Result) TranscriptionResponse {
	resp := TranscriptionResponse{
		Filename: res.Filename,
		Status:   string(res.Status),
	}
	if res.OK() {
		text := res.Text
		resp.Transcription = &text
		return resp
	}
	resp.Status = string(transcription.StatusError)
	resp.Error = errors.FromTranscription(res.Err)
	if resp.Error == nil {
		resp.Error = errors.NewInternalError("transcription failed")
	}
	return resp
}

// NewErrorTranscriptionResponse reports a failure that happened before the
// upload reached the pipeline, such as a missing field or an oversized body.
func NewErrorTranscriptionResponse(filename string, apiErr *errors.APIError) TranscriptionResponse {
	return TranscriptionResponse{
		Filename: filename,
		Status:   string(transcription.StatusError),
		Error:    apiErr,
	}
}

// HTTPStatus is 200 on success, otherwise the status of the error kind
func (r TranscriptionResponse) HTTPStatus() int {
	if r.Error == nil {
		return 200
	}
	return r.Error.HTTPStatus()
}
