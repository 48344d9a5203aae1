package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"speech-transcription/internal/api/v1/dto"
	"speech-transcription/internal/api/v1/services"
)

// SystemHandler serves health, model metadata and the endpoint index
type SystemHandler struct {
	service services.HealthService
	index   dto.IndexResponse
}

func NewSystemHandler(service services.HealthService, index dto.IndexResponse) *SystemHandler {
	return &SystemHandler{service: service, index: index}
}

// Health handles GET /health
//
// @Summary Service health
// @Description Reports whether the model is loaded. Never triggers or waits for loading.
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse "Model is ready"
// @Failure 503 {object} dto.HealthResponse "Model is loading or failed to load"
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	st := h.service.Health()
	code := http.StatusOK
	if !st.Ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, dto.ToHealthResponse(st))
}

// ModelInfo handles GET /models/info
//
// @Summary Model metadata
// @Description Describes the loaded model, its backend and the accepted uploads.
// @Tags system
// @Produce json
// @Success 200 {object} dto.ModelInfoResponse
// @Router /models/info [get]
func (h *SystemHandler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToModelInfoResponse(h.service.ModelInfo()))
}

// Index handles GET /
//
// @Summary API index
// @Tags system
// @Produce json
// @Success 200 {object} dto.IndexResponse
// @Router / [get]
func (h *SystemHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, h.index)
}
