//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/config"
)

// InitializeApp builds the process from configuration, including the
// backend selected by cfg.Engine.Backend.
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return &App{}, nil, nil
}

// InitializeAppWithLoader builds the process around an explicit backend.
func InitializeAppWithLoader(cfg *config.Config, loader inference.Loader, logger *zap.Logger) (*App, func(), error) {
	wire.Build(CoreSet)
	return &App{}, nil, nil
}
