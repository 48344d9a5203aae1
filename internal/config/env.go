package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// envPaths are checked in order; the first existing file wins.
var envPaths = []string{
	".env",
	".env.local",
	"../.env",
	"../../.env",
}

// LoadEnv loads environment variables from the first .env file found.
// A missing file is not an error since variables may be set system-wide.
// It returns the path that was loaded, or "" when none was found.
func LoadEnv() (string, error) {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}
	return "", nil
}

// applyEnv overlays TRANSCRIBE_* variables (and a few conventional names) on c.
func (c *Config) applyEnv() error {
	c.Server.Host = getEnvOrDefault("TRANSCRIBE_HOST", c.Server.Host)
	c.Server.Port = getEnvOrDefault("TRANSCRIBE_PORT", getEnvOrDefault("PORT", c.Server.Port))
	c.Server.Environment = getEnvOrDefault("TRANSCRIBE_ENV", c.Server.Environment)

	if err := envInt64("TRANSCRIBE_MAX_UPLOAD_BYTES", &c.Upload.MaxUploadBytes); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("TRANSCRIBE_SUPPORTED_FORMATS")); v != "" {
		formats := lo.Map(strings.Split(v, ","), func(s string, _ int) string {
			return strings.ToLower(strings.TrimSpace(s))
		})
		c.Upload.SupportedFormats = lo.Uniq(lo.Compact(formats))
	}
	c.Upload.TempDir = getEnvOrDefault("TRANSCRIBE_TEMP_DIR", c.Upload.TempDir)

	if err := envInt("TRANSCRIBE_SAMPLE_RATE", &c.Audio.SampleRate); err != nil {
		return err
	}
	c.Audio.FFmpegPath = getEnvOrDefault("TRANSCRIBE_FFMPEG_PATH", c.Audio.FFmpegPath)

	c.Engine.Backend = getEnvOrDefault("TRANSCRIBE_ENGINE_BACKEND", c.Engine.Backend)
	c.Engine.Model = getEnvOrDefault("TRANSCRIBE_MODEL", c.Engine.Model)
	c.Engine.ModelDir = getEnvOrDefault("TRANSCRIBE_MODEL_DIR", c.Engine.ModelDir)
	c.Engine.Device = getEnvOrDefault("TRANSCRIBE_DEVICE", c.Engine.Device)
	c.Engine.Language = getEnvOrDefault("TRANSCRIBE_LANGUAGE", c.Engine.Language)
	c.Engine.BinaryPath = getEnvOrDefault("TRANSCRIBE_WHISPER_BINARY",
		getEnvOrDefault("WHISPER_CPP_BINARY", c.Engine.BinaryPath))
	if err := envBool("TRANSCRIBE_AUTO_DOWNLOAD", &c.Engine.AutoDownload); err != nil {
		return err
	}
	if err := envBool("TRANSCRIBE_LOAD_ON_START", &c.Engine.LoadOnStart); err != nil {
		return err
	}
	if err := envInt("TRANSCRIBE_THREADS", &c.Engine.Threads); err != nil {
		return err
	}
	if err := envInt("TRANSCRIBE_MAX_CONCURRENCY", &c.Engine.MaxConcurrency); err != nil {
		return err
	}
	if err := envDuration("TRANSCRIBE_LOAD_TIMEOUT", &c.Engine.LoadTimeout); err != nil {
		return err
	}
	c.Engine.OpenAI.APIKey = strings.TrimSpace(getEnvOrDefault("OPENAI_API_KEY", c.Engine.OpenAI.APIKey))
	c.Engine.OpenAI.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", c.Engine.OpenAI.BaseURL)
	c.Engine.OpenAI.Model = getEnvOrDefault("TRANSCRIBE_OPENAI_MODEL", c.Engine.OpenAI.Model)

	if err := envDuration("TRANSCRIBE_REQUEST_TIMEOUT", &c.Request.Timeout); err != nil {
		return err
	}

	c.Log.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", c.Log.Level))
	if debug, _ := strconv.ParseBool(os.Getenv("DEBUG")); debug {
		c.Log.Level = "debug"
	}
	if err := envBool("TRANSCRIBE_LOG_JSON", &c.Log.JSON); err != nil {
		return err
	}
	return envBool("TRANSCRIBE_METRICS_ENABLED", &c.Metrics.Enabled)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
