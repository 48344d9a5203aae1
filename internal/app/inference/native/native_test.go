package native

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/config"
)

func TestInfoSerializes(t *testing.T) {
	info := NewLoader(Settings{Model: "base", Device: "cpu"}, nil).Info()
	assert.Equal(t, 1, info.Concurrency)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, config.BackendWhisperNative, info.Backend)
}

func TestStubFailsEngineInit(t *testing.T) {
	if Available() {
		t.Skip("whisper.cpp is linked in")
	}
	engine := inference.NewEngine(NewLoader(Settings{Model: "base", ModelDir: t.TempDir()}, nil), inference.Options{}, nil)

	_, err := engine.Transcribe(context.Background(), make([]float32, 160), 16000)
	var initErr *inference.InitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, inference.StateFailed, engine.State())
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, inference.Backends(), config.BackendWhisperNative)
}
