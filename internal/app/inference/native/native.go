// Package native runs whisper.cpp in-process through cgo. Building it requires
// the whispercpp tag and a compiled libwhisper under third_party/whisper.cpp;
// without the tag the backend registers but fails to load.
package native

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/app/models"
	"speech-transcription/internal/config"
)

const sampleRate = 16000

// ErrUnavailable is returned by Load when the binary was built without whisper.cpp.
var ErrUnavailable = errors.New("native whisper backend not compiled in (build with -tags whispercpp)")

func init() {
	inference.Register(config.BackendWhisperNative, func(cfg *config.Config, logger *zap.Logger) (inference.Loader, error) {
		return NewLoader(Settings{
			Model:        cfg.Engine.Model,
			ModelDir:     cfg.Engine.ModelDir,
			AutoDownload: cfg.Engine.AutoDownload,
			Language:     cfg.Engine.Language,
			Threads:      cfg.Engine.Threads,
			Device:       cfg.Engine.Device,
		}, logger), nil
	})
}

type Settings struct {
	Model        string
	ModelDir     string
	AutoDownload bool
	Language     string
	Threads      int
	Device       string
}

type Loader struct {
	settings Settings
	logger   *zap.Logger
}

func NewLoader(settings Settings, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{settings: settings, logger: logger.With(zap.String("backend", config.BackendWhisperNative))}
}

// Info reports a concurrency of one: a whisper context is shared state and
// every call runs on it in turn.
func (l *Loader) Info() inference.Info {
	return inference.Info{
		Backend:     config.BackendWhisperNative,
		Model:       l.settings.Model,
		ModelType:   "whisper.cpp ggml",
		Device:      l.settings.Device,
		SampleRate:  sampleRate,
		Concurrency: 1,
	}
}

func (l *Loader) Load(ctx context.Context) (inference.Model, error) {
	if !Available() {
		return nil, ErrUnavailable
	}
	res, err := models.Resolve(l.settings.Model, l.settings.ModelDir)
	if err != nil {
		return nil, err
	}
	if res.NeedsDownload {
		if !l.settings.AutoDownload {
			return nil, errors.New("model " + res.Name + " is not downloaded and auto download is off")
		}
		res, err = models.Ensure(ctx, l.settings.Model, l.settings.ModelDir, models.Options{Logger: l.logger})
		if err != nil {
			return nil, err
		}
	}
	l.logger.Info("initialising whisper context", zap.String("model_path", res.Path))
	wc, err := newContext(res.Path, l.settings)
	if err != nil {
		return nil, err
	}
	return wc, nil
}
