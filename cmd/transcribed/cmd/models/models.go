package models

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"speech-transcription/cmd/transcribed/cmd/shared"
	"speech-transcription/internal/app/logging"
	appmodels "speech-transcription/internal/app/models"
	"speech-transcription/internal/app/progress"
)

var (
	dir          string
	retries      int
	showProgress bool
	noProgress   bool
)

func init() {
	Cmd.PersistentFlags().StringVarP(&dir, "dir", "d", "", "model directory (defaults to engine.model_dir)")

	pullCmd.Flags().IntVar(&retries, "retries", 3, "download attempts per model")
	pullCmd.Flags().BoolVar(&showProgress, "progress", false, "force progress bars even when stderr is not a terminal")
	pullCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(pullCmd)
}

// Cmd represents the models command
var Cmd = &cobra.Command{
	Use:   "models",
	Short: "List and download whisper.cpp model checkpoints",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models and whether they are downloaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		modelDir, err := resolveDir(cmd)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFILE\tMULTILINGUAL\tDOWNLOADED")
		for _, m := range appmodels.All() {
			res, err := appmodels.Resolve(m.Name, modelDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", m.Name, m.FileName, m.Multilingual, !res.NeedsDownload)
		}
		return w.Flush()
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull [name...]",
	Short: "Download models and verify their checksums",
	Long: `Download models and verify their checksums

- Without arguments the configured engine.model is pulled
- Models already present are skipped`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfig(cmd)
		if err != nil {
			return err
		}
		modelDir := cfg.Engine.ModelDir
		if dir != "" {
			modelDir = dir
		}
		names := args
		if len(names) == 0 {
			names = []string{cfg.Engine.Model}
		}

		logger, err := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		pm := progress.NewManager(progress.Config{
			Enabled: progress.ShouldShow(showProgress, noProgress),
			Writer:  cmd.ErrOrStderr(),
		})

		for _, name := range names {
			res, err := appmodels.Ensure(cmd.Context(), name, modelDir, appmodels.Options{
				Retries:  retries,
				Logger:   logger,
				Progress: pm.ProxyReader,
			})
			if err != nil {
				pm.Shutdown()
				return err
			}
			logger.Debug("model ready", zap.String("model", res.Name), zap.String("path", res.Path))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", res.Name, res.Path)
		}
		pm.Wait()
		return nil
	},
}

func resolveDir(cmd *cobra.Command) (string, error) {
	if dir != "" {
		return dir, nil
	}
	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Engine.ModelDir == "" {
		return "", fmt.Errorf("no model directory configured")
	}
	return cfg.Engine.ModelDir, nil
}
