// Package whispercli runs whisper.cpp as a subprocess per request.
package whispercli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/app/models"
	"speech-transcription/internal/config"
)

const sampleRate = 16000

func init() {
	inference.Register(config.BackendWhisperCLI, func(cfg *config.Config, logger *zap.Logger) (inference.Loader, error) {
		return NewLoader(Settings{
			BinaryPath:   cfg.Engine.BinaryPath,
			Model:        cfg.Engine.Model,
			ModelDir:     cfg.Engine.ModelDir,
			AutoDownload: cfg.Engine.AutoDownload,
			Language:     cfg.Engine.Language,
			Threads:      cfg.Engine.Threads,
			Device:       cfg.Engine.Device,
			WorkDir:      cfg.Upload.ResolveTempDir(),
		}, logger), nil
	})
}

// Settings configures the subprocess backend
type Settings struct {
	BinaryPath   string
	Model        string
	ModelDir     string
	AutoDownload bool
	Language     string
	Threads      int
	Device       string
	// WorkDir holds the per-request WAV and transcript files.
	WorkDir string
	// Download overrides how a missing named model is fetched.
	Download func(ctx context.Context, opts models.Options) error
}

// Loader resolves the binary and model once.
type Loader struct {
	settings Settings
	logger   *zap.Logger
}

func NewLoader(settings Settings, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Download == nil {
		settings.Download = models.Download
	}
	return &Loader{settings: settings, logger: logger.With(zap.String("backend", config.BackendWhisperCLI))}
}

func (l *Loader) Info() inference.Info {
	return inference.Info{
		Backend:    config.BackendWhisperCLI,
		Model:      l.settings.Model,
		ModelType:  "whisper.cpp ggml",
		Device:     l.settings.Device,
		SampleRate: sampleRate,
	}
}

// Load checks that the binary runs and the model file is present,
// downloading a named model when allowed.
func (l *Loader) Load(ctx context.Context) (inference.Model, error) {
	binary, err := exec.LookPath(l.settings.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp binary %q not found: %w", l.settings.BinaryPath, err)
	}

	res, err := models.Resolve(l.settings.Model, l.settings.ModelDir)
	if err != nil {
		return nil, err
	}
	if res.NeedsDownload {
		if !l.settings.AutoDownload {
			return nil, fmt.Errorf("model %s is not downloaded to %s and auto download is off", res.Name, res.Path)
		}
		l.logger.Info("downloading model", zap.String("model", res.Name), zap.String("url", res.URL))
		err := l.settings.Download(ctx, models.Options{
			URL:            res.URL,
			Destination:    res.Path,
			ExpectedSHA256: res.SHA256,
			Logger:         l.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("download model %s: %w", res.Name, err)
		}
	}

	workDir := l.settings.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	l.logger.Info("whisper.cpp ready", zap.String("binary", binary), zap.String("model_path", res.Path))
	return &Model{
		binary:    binary,
		modelPath: res.Path,
		language:  l.settings.Language,
		threads:   l.settings.Threads,
		useGPU:    l.settings.Device == "gpu",
		workDir:   workDir,
		logger:    l.logger,
	}, nil
}

// Model runs one whisper.cpp process per Transcribe call.
type Model struct {
	binary    string
	modelPath string
	language  string
	threads   int
	useGPU    bool
	workDir   string
	logger    *zap.Logger
}

func (m *Model) args(input, outBase string) []string {
	lang := m.language
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", m.modelPath,
		"-l", lang,
		"-bs", "1", // greedy
		"-nf",      // no temperature fallback
		"-nt",
		"-np",
		"-otxt",
		"-of", outBase,
		"-f", input,
	}
	if m.threads > 0 {
		args = append(args, "-t", strconv.Itoa(m.threads))
	}
	if !m.useGPU {
		args = append(args, "-ng")
	}
	return args
}

func (m *Model) Transcribe(ctx context.Context, samples []float32, rate int) (string, error) {
	dir, err := os.MkdirTemp(m.workDir, "whisper-cli-*")
	if err != nil {
		return "", fmt.Errorf("create request dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.wav")
	if err := audio.WriteWAVFile(input, samples, rate); err != nil {
		return "", err
	}
	outBase := filepath.Join(dir, "output")

	cmd := exec.CommandContext(ctx, m.binary, m.args(input, outBase)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("whisper.cpp failed: %w, stderr: %s", err, lastLine(stderr.String()))
	}

	out, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errors.New("whisper.cpp produced no transcript file")
		}
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Close is a no-op; there is no resident process.
func (m *Model) Close() error { return nil }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
