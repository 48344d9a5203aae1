package config

import "time"

// Service default configuration constants
const (
	// Server defaults
	DefaultHost         = "0.0.0.0"
	DefaultHTTPPort     = "8000"
	DefaultReadTimeout  = 60 * time.Second
	DefaultWriteTimeout = 120 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultEnvironment  = "development"

	// Upload defaults
	DefaultMaxUploadBytes int64 = 50 * 1024 * 1024

	// Audio defaults
	DefaultSampleRate = 16000
	DefaultFFmpegPath = "ffmpeg"

	// Engine defaults
	DefaultBackend        = "whisper-cli"
	DefaultModel          = "base"
	DefaultDevice         = "cpu"
	DefaultLanguage       = "en"
	DefaultMaxConcurrency = 1
	DefaultLoadTimeout    = 10 * time.Minute
	DefaultWhisperBinary  = "whisper-cli"
	DefaultOpenAIModel    = "whisper-1"

	// Request defaults
	DefaultRequestTimeout = 120 * time.Second

	// Logging defaults
	DefaultLogLevel = "info"
)

// Backend names understood by the inference registry.
const (
	BackendWhisperCLI    = "whisper-cli"
	BackendOpenAI        = "openai"
	BackendWhisperNative = "whisper-native"
)

// DefaultSupportedFormats is the upload format allow-list used when none is configured.
func DefaultSupportedFormats() []string {
	return []string{"wav", "mp3", "flac", "m4a", "ogg"}
}

// KnownFormats lists every format the decoder can handle. webm is opt-in.
func KnownFormats() []string {
	return []string{"wav", "mp3", "flac", "m4a", "ogg", "webm"}
}

// Default returns a Config populated with the service defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultHTTPPort,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			Environment:  DefaultEnvironment,
		},
		Upload: UploadConfig{
			MaxUploadBytes:   DefaultMaxUploadBytes,
			SupportedFormats: DefaultSupportedFormats(),
		},
		Audio: AudioConfig{
			SampleRate: DefaultSampleRate,
			FFmpegPath: DefaultFFmpegPath,
		},
		Engine: EngineConfig{
			Backend:        DefaultBackend,
			Model:          DefaultModel,
			ModelDir:       DefaultModelDir(),
			AutoDownload:   true,
			Device:         DefaultDevice,
			Language:       DefaultLanguage,
			MaxConcurrency: DefaultMaxConcurrency,
			LoadOnStart:    true,
			LoadTimeout:    DefaultLoadTimeout,
			BinaryPath:     DefaultWhisperBinary,
			OpenAI: OpenAIConfig{
				Model: DefaultOpenAIModel,
			},
		},
		Request: RequestConfig{
			Timeout: DefaultRequestTimeout,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
