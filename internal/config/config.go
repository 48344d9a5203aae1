package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration of the transcription service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Audio   AudioConfig   `yaml:"audio"`
	Engine  EngineConfig  `yaml:"engine"`
	Request RequestConfig `yaml:"request"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host         string        `yaml:"host" validate:"required"`
	Port         string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	Environment  string        `yaml:"environment" validate:"oneof=development production test"`
}

// UploadConfig bounds what the service accepts
type UploadConfig struct {
	MaxUploadBytes   int64    `yaml:"max_upload_bytes" validate:"gt=0"`
	SupportedFormats []string `yaml:"supported_formats" validate:"required,min=1,dive,oneof=wav mp3 flac m4a ogg webm"`
	// TempDir is where transient upload files live. Empty means the OS temp dir.
	TempDir string `yaml:"temp_dir"`
}

// AudioConfig controls decoding
type AudioConfig struct {
	SampleRate int    `yaml:"sample_rate" validate:"gte=8000,lte=48000"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// EngineConfig selects and tunes the inference backend
type EngineConfig struct {
	Backend        string        `yaml:"backend" validate:"required,oneof=whisper-cli openai whisper-native"`
	Model          string        `yaml:"model" validate:"required"`
	ModelDir       string        `yaml:"model_dir"`
	AutoDownload   bool          `yaml:"auto_download"`
	Device         string        `yaml:"device" validate:"oneof=cpu gpu"`
	Language       string        `yaml:"language"`
	Threads        int           `yaml:"threads" validate:"gte=0"`
	MaxConcurrency int           `yaml:"max_concurrency" validate:"gte=0"`
	LoadOnStart    bool          `yaml:"load_on_start"`
	LoadTimeout    time.Duration `yaml:"load_timeout"`
	BinaryPath     string        `yaml:"binary_path"`
	OpenAI         OpenAIConfig  `yaml:"openai"`
}

// OpenAIConfig configures the OpenAI-compatible remote backend
type OpenAIConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	VerifyOnLoad bool   `yaml:"verify_on_load"`
}

// RequestConfig bounds per-request work
type RequestConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// ResolveTempDir resolves the directory transient upload files are written to
func (u UploadConfig) ResolveTempDir() string {
	if u.TempDir != "" {
		return u.TempDir
	}
	return filepath.Join(os.TempDir(), "speech-transcription")
}

// DefaultModelDir returns the per-user model cache directory
func DefaultModelDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "speech-transcription", "models")
	}
	return filepath.Join(os.TempDir(), "speech-transcription", "models")
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
