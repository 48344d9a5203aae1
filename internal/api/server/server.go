package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"speech-transcription/docs"
	"speech-transcription/internal/api/middleware"
	"speech-transcription/internal/api/v1/dto"
	v1routes "speech-transcription/internal/api/v1/routes"
	"speech-transcription/internal/api/v1/services"
)

const (
	Title       = "Speech Transcription API"
	Description = "Upload an audio file and receive its transcription from a pretrained speech recognition model."
	Version     = "1.0.0"

	// multipart framing allowed on top of the maximum upload size
	formOverhead = 1 << 20
)

// Config represents API server configuration
type Config struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	Environment    string
	MaxUploadBytes int64
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
	errs       chan error
}

// NewServer creates a new API server. metrics may be nil to disable /metrics.
func NewServer(
	config Config,
	transcriptionService services.TranscriptionService,
	healthService services.HealthService,
	metrics http.Handler,
	logger *zap.Logger,
) *Server {
	switch config.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	logger = logger.With(zap.String("component", "server"))

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger, "/health", "/metrics"))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	docs.SwaggerInfo.Title = Title
	docs.SwaggerInfo.Description = Description
	docs.SwaggerInfo.Version = Version

	container := &v1routes.ServiceContainer{
		TranscriptionService: transcriptionService,
		HealthService:        healthService,
		Index: dto.IndexResponse{
			Title:         Title,
			Description:   Description,
			Version:       Version,
			Documentation: "/swagger/index.html",
			Endpoints: map[string]string{
				"transcribe":  "/transcribe",
				"health":      "/health",
				"model_info":  "/models/info",
				"metrics":     "/metrics",
				"api_v1":      "/api/v1",
				"swagger_doc": "/swagger/doc.json",
			},
		},
	}
	if metrics == nil {
		delete(container.Index.Endpoints, "metrics")
	}

	limited := router.Group("", middleware.MaxBodyBytes(config.MaxUploadBytes+formOverhead))
	v1routes.RegisterRoutes(limited, container)
	v1routes.RegisterRoutes(limited.Group("/api/v1"), container)
	v1routes.RegisterIndex(router, container)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config:     config,
		router:     router,
		httpServer: httpServer,
		logger:     logger,
		errs:       make(chan error, 1),
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly; later serve errors arrive on Errors.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("Starting API server",
		zap.String("address", ln.Addr().String()),
		zap.String("environment", s.config.Environment),
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped unexpectedly", zap.Error(err))
			s.errs <- err
		}
		close(s.errs)
	}()
	return nil
}

// Errors delivers a fatal serve error, then closes once the server stopped
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
