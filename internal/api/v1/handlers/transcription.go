package handlers

import (
	"github.com/gin-gonic/gin"

	"speech-transcription/internal/api/errors"
	"speech-transcription/internal/api/middleware"
	"speech-transcription/internal/api/v1/dto"
	"speech-transcription/internal/api/v1/services"
	"speech-transcription/internal/app/audio"
)

// TranscriptionHandler handles POST /transcribe
type TranscriptionHandler struct {
	service services.TranscriptionService
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(service services.TranscriptionService) *TranscriptionHandler {
	return &TranscriptionHandler{
		service: service,
	}
}

// Transcribe handles POST /transcribe
//
// @Summary Transcribe an audio file
// @Description Uploads one audio file and returns its transcription. The file is kept only for the duration of the request.
// @Tags transcription
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file (wav, mp3, flac, m4a, ogg)"
// @Success 200 {object} dto.TranscriptionResponse "Transcription succeeded"
// @Failure 400 {object} dto.TranscriptionResponse "Audio could not be decoded"
// @Failure 413 {object} dto.TranscriptionResponse "File exceeds the maximum upload size"
// @Failure 422 {object} dto.TranscriptionResponse "Unsupported format, empty file or missing field"
// @Failure 499 {object} dto.TranscriptionResponse "Client closed the request"
// @Failure 500 {object} dto.TranscriptionResponse "Inference failed"
// @Failure 503 {object} dto.TranscriptionResponse "Model is loading or failed to load"
// @Failure 504 {object} dto.TranscriptionResponse "Request timed out"
// @Failure 507 {object} dto.TranscriptionResponse "Transient storage unavailable"
// @Router /transcribe [post]
func (h *TranscriptionHandler) Transcribe(c *gin.Context) {
	var form dto.TranscribeForm
	if err := middleware.ValidateForm(c, &form); err != nil {
		respondError(c, uploadName(c), middleware.ToAPIError(c, err))
		return
	}

	file, err := form.File.Open()
	if err != nil {
		_ = c.Error(err)
		respondError(c, form.File.Filename, middleware.ToAPIError(c, errors.NewBadRequestError("uploaded file could not be read")))
		return
	}
	defer file.Close()

	res := h.service.Transcribe(c.Request.Context(), audio.Upload{
		Filename:    form.File.Filename,
		ContentType: form.File.Header.Get("Content-Type"),
		Size:        form.File.Size,
		Body:        file,
	})

	resp := dto.ToTranscriptionResponse(res)
	if resp.Error != nil {
		resp.Error.RequestID = middleware.GetRequestID(c)
		if res.Err != nil && res.Err.Err != nil {
			_ = c.Error(res.Err)
		}
	}
	c.JSON(resp.HTTPStatus(), resp)
}

func respondError(c *gin.Context, filename string, apiErr *errors.APIError) {
	resp := dto.NewErrorTranscriptionResponse(filename, apiErr)
	c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
}

// uploadName recovers the client filename when binding failed after the
// multipart headers were parsed.
func uploadName(c *gin.Context) string {
	if c.Request.MultipartForm == nil {
		return ""
	}
	if files := c.Request.MultipartForm.File["file"]; len(files) > 0 {
		return files[0].Filename
	}
	return ""
}
