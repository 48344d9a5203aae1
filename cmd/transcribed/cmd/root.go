package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"speech-transcription/cmd/transcribed/cmd/models"
	"speech-transcription/cmd/transcribed/cmd/serve"
	"speech-transcription/cmd/transcribed/cmd/shared"
	"speech-transcription/cmd/transcribed/cmd/transcribe"
	"speech-transcription/cmd/transcribed/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transcribed",
	Short: "Speech-to-text service backed by a pretrained Whisper model",
	Long: `Speech-to-text service backed by a pretrained Whisper model.

- serve starts the HTTP API (POST /transcribe, GET /health, GET /models/info)
- transcribe runs local files through the same pipeline
- models lists and downloads ggml checkpoints`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(models.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().StringP(shared.FlagConfig, "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolP(shared.FlagVerbose, "V", false, "verbose output")
}
