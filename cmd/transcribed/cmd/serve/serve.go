package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"speech-transcription/cmd/transcribed/cmd/shared"
	"speech-transcription/internal/app"
)

var (
	host            string
	port            string
	backend         string
	model           string
	noLoadOnStart   bool
	shutdownTimeout time.Duration
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	Cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config)")
	Cmd.Flags().StringVarP(&backend, "backend", "b", "", "inference backend: whisper-cli, openai or whisper-native")
	Cmd.Flags().StringVarP(&model, "model", "m", "", "model name or path to a ggml checkpoint")
	Cmd.Flags().BoolVar(&noLoadOnStart, "lazy", false, "load the model on the first request instead of at startup")
	Cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", app.DefaultShutdownTimeout, "time allowed for in-flight requests on shutdown")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transcription HTTP API",
	Long: `Start the transcription HTTP API

- The model starts loading in the background unless --lazy is set
- /health reports 503 until the model is ready
- SIGINT or SIGTERM drains in-flight requests before exiting`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfig(cmd)
		if err != nil {
			return err
		}
		if host != "" {
			cfg.Server.Host = host
		}
		if port != "" {
			cfg.Server.Port = port
		}
		if backend != "" {
			cfg.Engine.Backend = backend
		}
		if model != "" {
			cfg.Engine.Model = model
		}
		if noLoadOnStart {
			cfg.Engine.LoadOnStart = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		a, cleanup, err := app.InitializeApp(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		a.Logger.Info("transcription service configured",
			zap.String("address", cfg.Server.Addr()),
			zap.String("backend", cfg.Engine.Backend),
			zap.String("model", cfg.Engine.Model),
			zap.Strings("formats", cfg.Upload.SupportedFormats),
			zap.Int64("max_upload_bytes", cfg.Upload.MaxUploadBytes),
			zap.Bool("load_on_start", cfg.Engine.LoadOnStart),
		)

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Run(ctx, shutdownTimeout)
	},
}
