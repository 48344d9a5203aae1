package app

import (
	"fmt"

	"github.com/google/wire"
	"go.uber.org/zap"

	"speech-transcription/internal/api/server"
	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/health"
	"speech-transcription/internal/app/inference"
	_ "speech-transcription/internal/app/inference/native"
	_ "speech-transcription/internal/app/inference/openaiwhisper"
	_ "speech-transcription/internal/app/inference/whispercli"
	"speech-transcription/internal/app/logging"
	"speech-transcription/internal/app/metrics"
	"speech-transcription/internal/app/tempfile"
	"speech-transcription/internal/app/transcription"
	"speech-transcription/internal/config"
)

// App is the fully wired process. The Engine is the only long-lived shared
// resource; everything else is stateless or per-request.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Storage  *tempfile.Manager
	Engine   *inference.Engine
	Service  *transcription.Service
	Reporter *health.Reporter
	Server   *server.Server
}

// CoreSet wires everything below the logger and the backend loader.
var CoreSet = wire.NewSet(
	ProvideMetrics,
	ProvideValidator,
	ProvideStorage,
	ProvideDecoder,
	ProvideEngine,
	ProvideService,
	ProvideReporter,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

// ProviderSet is CoreSet plus the configured logger and backend.
var ProviderSet = wire.NewSet(
	CoreSet,
	ProvideLogger,
	ProvideLoader,
)

func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideMetrics() *metrics.Metrics {
	return metrics.New(nil)
}

func ProvideValidator(cfg *config.Config) *audio.Validator {
	return audio.NewValidator(cfg.Upload.SupportedFormats, cfg.Upload.MaxUploadBytes)
}

// ProvideStorage creates the transient upload directory and removes files a
// previous crash left behind.
func ProvideStorage(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*tempfile.Manager, error) {
	storage, err := tempfile.NewManager(cfg.Upload.ResolveTempDir(), cfg.Upload.MaxUploadBytes, logger)
	if err != nil {
		return nil, err
	}
	storage.OnChange = m.SetTransientFiles
	return storage, nil
}

func ProvideDecoder(cfg *config.Config, logger *zap.Logger) *audio.Decoder {
	return audio.NewDecoder(cfg.Audio.SampleRate, cfg.Audio.FFmpegPath, logger)
}

func ProvideLoader(cfg *config.Config, logger *zap.Logger) (inference.Loader, error) {
	return inference.NewLoader(cfg, logger)
}

// ProvideEngine creates the engine without loading it. The cleanup waits for
// in-flight inferences and releases the model.
func ProvideEngine(cfg *config.Config, loader inference.Loader, m *metrics.Metrics, logger *zap.Logger) (*inference.Engine, func()) {
	engine := inference.NewEngine(loader, inference.Options{
		MaxConcurrency: cfg.Engine.MaxConcurrency,
		LoadTimeout:    cfg.Engine.LoadTimeout,
		OnStateChange:  func(s inference.State) { m.SetEngineState(int(s)) },
	}, logger)
	return engine, func() {
		if err := engine.Close(); err != nil {
			logger.Warn("failed to release inference model", zap.Error(err))
		}
	}
}

func ProvideService(
	cfg *config.Config,
	validator *audio.Validator,
	storage *tempfile.Manager,
	decoder *audio.Decoder,
	engine *inference.Engine,
	m *metrics.Metrics,
	logger *zap.Logger,
) *transcription.Service {
	return transcription.NewService(validator, storage, decoder, engine, transcription.Options{
		Timeout: cfg.Request.Timeout,
		Metrics: m,
	}, logger)
}

func ProvideReporter(cfg *config.Config, validator *audio.Validator, engine *inference.Engine) *health.Reporter {
	return health.NewReporter(engine, validator.SupportedFormats(), cfg.Upload.MaxUploadBytes)
}

func ProvideServer(cfg *config.Config, svc *transcription.Service, reporter *health.Reporter, m *metrics.Metrics, logger *zap.Logger) *server.Server {
	metricsHandler := m.Handler()
	if !cfg.Metrics.Enabled {
		metricsHandler = nil
	}
	return server.NewServer(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Environment:    cfg.Server.Environment,
		MaxUploadBytes: cfg.Upload.MaxUploadBytes,
	}, svc, reporter, metricsHandler, logger)
}
