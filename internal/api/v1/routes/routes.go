package routes

import (
	"github.com/gin-gonic/gin"

	"speech-transcription/internal/api/v1/dto"
	"speech-transcription/internal/api/v1/handlers"
	"speech-transcription/internal/api/v1/services"
)

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	TranscriptionService services.TranscriptionService
	HealthService        services.HealthService
	Index                dto.IndexResponse
}

// RegisterRoutes registers the transcription, health and model info
// endpoints. The server mounts them both at the root and under /api/v1.
func RegisterRoutes(router gin.IRoutes, container *ServiceContainer) {
	transcriptionHandler := handlers.NewTranscriptionHandler(container.TranscriptionService)
	router.POST("/transcribe", transcriptionHandler.Transcribe)

	systemHandler := handlers.NewSystemHandler(container.HealthService, container.Index)
	router.GET("/health", systemHandler.Health)
	router.GET("/models/info", systemHandler.ModelInfo)
}

// RegisterIndex registers GET / with the endpoint listing
func RegisterIndex(router gin.IRoutes, container *ServiceContainer) {
	systemHandler := handlers.NewSystemHandler(container.HealthService, container.Index)
	router.GET("/", systemHandler.Index)
}
