package services

import (
	"context"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/health"
	"speech-transcription/internal/app/transcription"
)

// TranscriptionService runs one upload through the pipeline
type TranscriptionService interface {
	Transcribe(ctx context.Context, upload audio.Upload) transcription.Result
}

// HealthService reports engine readiness and model metadata without blocking
type HealthService interface {
	Health() health.Status
	ModelInfo() health.ModelInfo
}

// Compile-time checks that the app layer satisfies the handler contracts.
var (
	_ TranscriptionService = (*transcription.Service)(nil)
	_ HealthService        = (*health.Reporter)(nil)
)
