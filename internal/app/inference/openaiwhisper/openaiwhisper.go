// Package openaiwhisper sends audio to an OpenAI-compatible
// /audio/transcriptions endpoint, which includes self-hosted whisper servers.
package openaiwhisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/config"
)

const sampleRate = 16000

func init() {
	inference.Register(config.BackendOpenAI, func(cfg *config.Config, logger *zap.Logger) (inference.Loader, error) {
		return NewLoader(Settings{
			BaseURL:      cfg.Engine.OpenAI.BaseURL,
			APIKey:       cfg.Engine.OpenAI.APIKey,
			Model:        cfg.Engine.OpenAI.Model,
			Language:     cfg.Engine.Language,
			VerifyOnLoad: cfg.Engine.OpenAI.VerifyOnLoad,
			WorkDir:      cfg.Upload.ResolveTempDir(),
		}, logger), nil
	})
}

// Settings configures the remote backend
type Settings struct {
	BaseURL      string
	APIKey       string
	Model        string
	Language     string
	VerifyOnLoad bool
	WorkDir      string
}

type Loader struct {
	settings Settings
	logger   *zap.Logger
}

func NewLoader(settings Settings, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Model == "" {
		settings.Model = openai.Whisper1
	}
	return &Loader{settings: settings, logger: logger.With(zap.String("backend", config.BackendOpenAI))}
}

func (l *Loader) Info() inference.Info {
	return inference.Info{
		Backend:    config.BackendOpenAI,
		Model:      l.settings.Model,
		ModelType:  "openai-compatible",
		Device:     "remote",
		SampleRate: sampleRate,
	}
}

// Load builds the client. With VerifyOnLoad the model must be listed by the
// server, which catches bad keys and URLs at startup instead of per request.
func (l *Loader) Load(ctx context.Context) (inference.Model, error) {
	if l.settings.APIKey == "" && l.settings.BaseURL == "" {
		return nil, errors.New("OPENAI_API_KEY is required when no base URL is configured")
	}

	clientConfig := openai.DefaultConfig(l.settings.APIKey)
	if l.settings.BaseURL != "" {
		clientConfig.BaseURL = l.settings.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	if l.settings.VerifyOnLoad {
		list, err := client.ListModels(ctx)
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		found := false
		for _, m := range list.Models {
			if m.ID == l.settings.Model {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("model %q is not served by %s", l.settings.Model, clientConfig.BaseURL)
		}
	}

	workDir := l.settings.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	l.logger.Info("remote transcription client ready", zap.String("base_url", clientConfig.BaseURL), zap.String("model", l.settings.Model))
	return &Model{client: client, model: l.settings.Model, language: l.settings.Language, workDir: workDir}, nil
}

// Model uploads a WAV rendition of the signal per call.
type Model struct {
	client   *openai.Client
	model    string
	language string
	workDir  string
}

func (m *Model) Transcribe(ctx context.Context, samples []float32, rate int) (string, error) {
	dir, err := os.MkdirTemp(m.workDir, "openai-*")
	if err != nil {
		return "", fmt.Errorf("create request dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "audio.wav")
	if err := audio.WriteWAVFile(path, samples, rate); err != nil {
		return "", err
	}

	resp, err := m.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       m.model,
		FilePath:    path,
		Temperature: 0,
		Language:    m.language,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("remote transcription: %w", err)
	}
	return resp.Text, nil
}

func (m *Model) Close() error { return nil }
