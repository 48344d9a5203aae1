package transcribe

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"speech-transcription/cmd/transcribed/cmd/shared"
	"speech-transcription/internal/api/v1/dto"
	"speech-transcription/internal/app"
	"speech-transcription/internal/app/progress"
	"speech-transcription/internal/app/transcription"
)

var (
	backend      string
	model        string
	format       string
	showProgress bool
	noProgress   bool
)

func init() {
	Cmd.Flags().StringVarP(&backend, "backend", "b", "", "inference backend: whisper-cli, openai or whisper-native")
	Cmd.Flags().StringVarP(&model, "model", "m", "", "model name or path to a ggml checkpoint")
	Cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or text")
	Cmd.Flags().BoolVar(&showProgress, "progress", false, "force the progress bar even when stderr is not a terminal")
	Cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <file> [file...]",
	Short: "Transcribe local audio files with the configured model",
	Long: `Transcribe local audio files with the configured model

- Each file goes through the same validate, decode and inference pipeline as an upload
- Results are printed one per line as they finish
- The command fails if any file failed`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if format != "json" && format != "text" {
			return fmt.Errorf("unknown output format %q", format)
		}

		cfg, err := shared.LoadConfig(cmd)
		if err != nil {
			return err
		}
		if backend != "" {
			cfg.Engine.Backend = backend
		}
		if model != "" {
			cfg.Engine.Model = model
		}
		if !shared.Verbose(cmd) {
			cfg.Log.Level = "warn"
		}
		// stdout carries results; gin's debug route dump must stay off it
		cfg.Server.Environment = "production"
		if err := cfg.Validate(); err != nil {
			return err
		}

		a, cleanup, err := app.InitializeApp(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		pm := progress.NewManager(progress.Config{
			Enabled: progress.ShouldShow(showProgress, noProgress),
			Writer:  cmd.ErrOrStderr(),
		})
		bar := pm.CreateBar(len(args), "Transcribing")

		failed := 0
		out := cmd.OutOrStdout()
		for _, path := range args {
			res := a.TranscribeFile(cmd.Context(), path)
			bar.Increment()
			if !res.OK() {
				failed++
			}
			if err := write(out, res); err != nil {
				pm.Shutdown()
				return err
			}
		}
		pm.Wait()

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func write(out io.Writer, res transcription.Result) error {
	if format == "text" {
		if res.OK() {
			_, err := fmt.Fprintf(out, "%s: %s\n", res.Filename, res.Text)
			return err
		}
		_, err := fmt.Fprintf(out, "%s: error: %s (%s)\n", res.Filename, res.Err.Message, res.Err.Code)
		return err
	}
	return json.NewEncoder(out).Encode(dto.ToTranscriptionResponse(res))
}
