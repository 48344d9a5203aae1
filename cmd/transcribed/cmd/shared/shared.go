// Package shared holds helpers common to the transcribed subcommands.
package shared

import (
	"fmt"

	"github.com/spf13/cobra"

	"speech-transcription/internal/config"
)

const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
)

// LoadConfig loads .env, the --config file and the environment, then applies
// --verbose. Commands run outside the root command simply have no file.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := config.LoadEnv(); err != nil {
		return nil, err
	}

	var path string
	if f := cmd.Flag(FlagConfig); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if Verbose(cmd) {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// Verbose reports whether --verbose was given
func Verbose(cmd *cobra.Command) bool {
	f := cmd.Flag(FlagVerbose)
	return f != nil && f.Value.String() == "true"
}
