package inference_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/app/testutil"
)

func tone(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 0.25
	}
	return out
}

func TestEngineLazyLoadOnFirstTranscribe(t *testing.T) {
	model := testutil.NewFakeModel().SetResponse(16000, " HELLO WORLD ")
	loader := testutil.NewFakeLoader(model)
	engine := inference.NewEngine(loader, inference.Options{}, nil)

	assert.Equal(t, inference.StateUninitialized, engine.State())

	text, err := engine.Transcribe(context.Background(), tone(16000), 16000)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, inference.StateReady, engine.State())
	assert.Equal(t, 1, loader.Loads())
}

func TestEngineLoadsExactlyOnceUnderConcurrency(t *testing.T) {
	model := testutil.NewFakeModel()
	loader := testutil.NewFakeLoader(model)
	loader.Delay = 20 * time.Millisecond
	engine := inference.NewEngine(loader, inference.Options{}, nil)

	const callers = 50
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transcribe(context.Background(), tone(160), 16000)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, loader.Loads())
	assert.Equal(t, callers, model.Calls())
}

func TestEngineFailedIsSticky(t *testing.T) {
	loader := testutil.FailingLoader(nil)
	var transitions []inference.State
	var mu sync.Mutex
	engine := inference.NewEngine(loader, inference.Options{
		OnStateChange: func(s inference.State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, s)
		},
	}, nil)

	err := engine.Load(context.Background())
	var initErr *inference.InitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, testutil.ErrFakeLoad)
	assert.Equal(t, inference.StateFailed, engine.State())

	for i := 0; i < 5; i++ {
		_, err := engine.Transcribe(context.Background(), tone(160), 16000)
		require.ErrorAs(t, err, &initErr)
	}
	assert.Equal(t, 1, loader.Loads(), "failed engine must not retry")

	snap := engine.Snapshot()
	assert.Equal(t, inference.StateFailed, snap.State)
	assert.ErrorIs(t, snap.Err, testutil.ErrFakeLoad)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []inference.State{inference.StateLoading, inference.StateFailed}, transitions)
}

func TestEngineLoadPanicBecomesFailure(t *testing.T) {
	loader := testutil.NewFakeLoader(testutil.NewFakeModel())
	loader.PanicWith = "cuda init exploded"
	engine := inference.NewEngine(loader, inference.Options{}, nil)

	err := engine.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cuda init exploded")
	assert.Equal(t, inference.StateFailed, engine.State())
}

func TestEngineWaitWhileLoading(t *testing.T) {
	loader := testutil.NewFakeLoader(testutil.NewFakeModel())
	loader.Gate = make(chan struct{})
	engine := inference.NewEngine(loader, inference.Options{}, nil)

	engine.Start()
	assert.Equal(t, inference.StateLoading, engine.State())

	// Snapshot must not block while the load is in progress.
	snap := engine.Snapshot()
	assert.Equal(t, inference.StateLoading, snap.State)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := engine.Transcribe(ctx, tone(160), 16000)
	assert.ErrorIs(t, err, inference.ErrLoading)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(loader.Gate)
	require.NoError(t, engine.Wait(context.Background()))
	assert.Equal(t, inference.StateReady, engine.State())

	// A request that gave up did not fail the engine.
	_, err = engine.Transcribe(context.Background(), tone(160), 16000)
	assert.NoError(t, err)
}

func TestEngineInferenceErrorKeepsReady(t *testing.T) {
	model := testutil.NewFakeModel().SetError(errors.New("out of memory"))
	engine := inference.NewEngine(testutil.NewFakeLoader(model), inference.Options{}, nil)

	_, err := engine.Transcribe(context.Background(), tone(160), 16000)
	var inferr *inference.InferenceError
	require.ErrorAs(t, err, &inferr)
	assert.False(t, inferr.Panic)
	assert.Equal(t, inference.StateReady, engine.State())

	model.SetError(nil)
	text, err := engine.Transcribe(context.Background(), tone(160), 16000)
	require.NoError(t, err)
	assert.Equal(t, "speech", text)
}

func TestEngineRecoversBackendPanic(t *testing.T) {
	model := testutil.NewFakeModel()
	model.PanicWith = "segfault in decoder"
	engine := inference.NewEngine(testutil.NewFakeLoader(model), inference.Options{}, nil)

	_, err := engine.Transcribe(context.Background(), tone(160), 16000)
	var inferr *inference.InferenceError
	require.ErrorAs(t, err, &inferr)
	assert.True(t, inferr.Panic)
	assert.Equal(t, inference.StateReady, engine.State())
}

func TestEngineRejectsWrongSampleRate(t *testing.T) {
	model := testutil.NewFakeModel()
	engine := inference.NewEngine(testutil.NewFakeLoader(model), inference.Options{}, nil)

	_, err := engine.Transcribe(context.Background(), tone(160), 44100)
	var inferr *inference.InferenceError
	require.ErrorAs(t, err, &inferr)
	assert.Equal(t, 0, model.Calls())
}

func TestEngineSerializesWhenLimited(t *testing.T) {
	model := testutil.NewFakeModel().SetLatency(5 * time.Millisecond)
	loader := testutil.NewFakeLoader(model)
	loader.InfoValue.Concurrency = 1
	engine := inference.NewEngine(loader, inference.Options{MaxConcurrency: 4}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transcribe(context.Background(), tone(160), 16000)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, model.Calls())
	assert.Equal(t, 1, model.PeakConcurrency())
	assert.Equal(t, 1, engine.Snapshot().Concurrency)
}

func TestEngineTimeoutLeavesStateAlone(t *testing.T) {
	model := testutil.NewFakeModel().SetLatency(200 * time.Millisecond)
	engine := inference.NewEngine(testutil.NewFakeLoader(model), inference.Options{MaxConcurrency: 1}, nil)
	require.NoError(t, engine.Load(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := engine.Transcribe(ctx, tone(160), 16000)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, inference.StateReady, engine.State())
}

func TestEngineClose(t *testing.T) {
	model := testutil.NewFakeModel()
	engine := inference.NewEngine(testutil.NewFakeLoader(model), inference.Options{}, nil)
	require.NoError(t, engine.Load(context.Background()))

	require.NoError(t, engine.Close())
	assert.True(t, model.Closed())
	require.NoError(t, engine.Close())

	_, err := engine.Transcribe(context.Background(), tone(160), 16000)
	assert.ErrorIs(t, err, inference.ErrClosed)
}

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"  HELLO WORLD  ", "hello world"},
		{"[BLANK_AUDIO]", ""},
		{" [blank_audio] ", ""},
		{"Hello [MUSIC] there", "hello there"},
		{"(silence)", ""},
		{"Line one\nline   two", "line one line two"},
		{"", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, inference.NormalizeText(tc.in), "input %q", tc.in)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", inference.StateUninitialized.String())
	assert.Equal(t, "loading", inference.StateLoading.String())
	assert.Equal(t, "ready", inference.StateReady.String())
	assert.Equal(t, "failed", inference.StateFailed.String())
}
