package transcription_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/inference"
	"speech-transcription/internal/app/tempfile"
	"speech-transcription/internal/app/testutil"
	"speech-transcription/internal/app/transcription"
)

const maxUpload = 1 << 20

type countingDecoder struct {
	inner *audio.Decoder
	calls atomic.Int32
}

func (d *countingDecoder) Decode(ctx context.Context, path string, f audio.Format) (*audio.Signal, error) {
	d.calls.Add(1)
	return d.inner.Decode(ctx, path, f)
}

type recognizerFunc func() error

func (f recognizerFunc) Transcribe(context.Context, []float32, int) (string, error) {
	return "", f()
}

type pipeline struct {
	svc       *transcription.Service
	validator *audio.Validator
	storage   *tempfile.Manager
	decoder   *countingDecoder
	model     *testutil.FakeModel
	loader    *testutil.FakeLoader
	engine    *inference.Engine
}

type pipelineOpts struct {
	loader         *testutil.FakeLoader
	timeout        time.Duration
	maxConcurrency int
}

func newPipeline(t *testing.T, opts pipelineOpts) *pipeline {
	t.Helper()
	storage, err := tempfile.NewManager(t.TempDir(), maxUpload, nil)
	require.NoError(t, err)

	loader := opts.loader
	if loader == nil {
		loader = testutil.NewFakeLoader(testutil.NewFakeModel())
	}
	engine := inference.NewEngine(loader, inference.Options{MaxConcurrency: opts.maxConcurrency}, nil)
	t.Cleanup(func() { _ = engine.Close() })

	dec := &countingDecoder{inner: audio.NewDecoder(16000, "", nil)}
	validator := audio.NewValidator([]string{"wav", "mp3", "flac", "m4a", "ogg"}, maxUpload)

	return &pipeline{
		svc:       transcription.NewService(validator, storage, dec, engine, transcription.Options{Timeout: opts.timeout}, nil),
		validator: validator,
		storage:   storage,
		decoder:   dec,
		model:     loader.Model,
		loader:    loader,
		engine:    engine,
	}
}

func (p *pipeline) assertClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(p.storage.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "no transient files may survive a request")
	assert.Equal(t, int64(0), p.storage.Outstanding())
}

func upload(name string, data []byte) audio.Upload {
	return audio.Upload{Filename: name, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func wav16(t *testing.T, samples []int, rate int) []byte {
	return testutil.WAVBytes(t, samples, rate, 1, 16)
}

func TestHelloWorldExample(t *testing.T) {
	p := newPipeline(t, pipelineOpts{})
	p.model.SetResponse(16000, " Hello World ")

	res := p.svc.Transcribe(context.Background(), upload("test.wav", wav16(t, testutil.Tone(16000, 16000, 440, 0.5), 16000)))

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, "test.wav", res.Filename)
	assert.Equal(t, audio.FormatWAV, res.Format)
	assert.Equal(t, time.Second, res.AudioDuration)
	p.assertClean(t)
}

func TestSilentInputTranscribesToEmpty(t *testing.T) {
	testCases := []struct {
		name  string
		file  string
		bytes func(t *testing.T) []byte
	}{
		{"wav 16-bit", "s.wav", func(t *testing.T) []byte { return wav16(t, testutil.Silence(16000), 16000) }},
		{"wav 8-bit", "s.wav", func(t *testing.T) []byte {
			samples := make([]int, 8000)
			for i := range samples {
				samples[i] = 128
			}
			return testutil.WAVBytes(t, samples, 8000, 1, 8)
		}},
		{"wav 24-bit stereo 44.1k", "s.wav", func(t *testing.T) []byte {
			return testutil.WAVBytes(t, testutil.Silence(2*44100), 44100, 2, 24)
		}},
		{"mp3", "s.mp3", func(*testing.T) []byte { return testutil.SilentMP3(40) }},
		{"flac", "s.flac", func(*testing.T) []byte {
			return testutil.FLACBytes(make([]int16, 16000), 16000, 1, 4096)
		}},
		{"ogg", "s.ogg", func(t *testing.T) []byte { return testutil.FFmpegSilence(t, "ogg", 16000, 1) }},
		{"m4a", "s.m4a", func(t *testing.T) []byte { return testutil.FFmpegSilence(t, "m4a", 16000, 1) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.bytes(t)
			p := newPipeline(t, pipelineOpts{})

			res := p.svc.Transcribe(context.Background(), upload(tc.file, data))
			require.True(t, res.OK(), "unexpected error: %v", res.Err)
			assert.Equal(t, "", res.Text)
			assert.Equal(t, 1, p.model.Calls(), "inference runs exactly once")
			p.assertClean(t)
		})
	}
}

func TestOGGVorbisDecodesWithoutFFmpeg(t *testing.T) {
	p := newPipeline(t, pipelineOpts{})
	p.model.SetResponse(16000, "Ogg Vorbis")

	res := p.svc.Transcribe(context.Background(), upload("tone.ogg", testutil.Fixture(t, "tone-44k-mono.ogg")))
	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "ogg vorbis", res.Text)
	assert.Equal(t, audio.FormatOGG, res.Format)
	assert.Equal(t, time.Second, res.AudioDuration)
	assert.Equal(t, int32(1), p.decoder.calls.Load())
	p.assertClean(t)
}

func TestUnsupportedExtensionNeverDecodes(t *testing.T) {
	p := newPipeline(t, pipelineOpts{})
	data := wav16(t, testutil.Tone(1600, 16000, 440, 0.5), 16000)

	for _, name := range []string{"clip.txt", "clip.exe", "clip.aiff", "clip"} {
		res := p.svc.Transcribe(context.Background(), upload(name, data))
		require.False(t, res.OK(), name)
		assert.Equal(t, transcription.KindValidation, res.Err.Kind, name)
		assert.Equal(t, transcription.CodeUnsupportedFormat, res.Err.Code, name)
		assert.Empty(t, res.Text)
	}
	assert.Equal(t, int32(0), p.decoder.calls.Load())
	assert.Equal(t, 0, p.model.Calls())
	assert.Equal(t, 0, p.loader.Loads(), "validation failures do not load the model")
	p.assertClean(t)
}

func TestSizeLimitRejectsBeforeDecode(t *testing.T) {
	p := newPipeline(t, pipelineOpts{})
	big := make([]byte, maxUpload+1)

	res := p.svc.Transcribe(context.Background(), upload("big.wav", big))
	require.False(t, res.OK())
	assert.Equal(t, transcription.KindValidation, res.Err.Kind)
	assert.Equal(t, transcription.CodePayloadTooLarge, res.Err.Code)

	// A client that under-declares Size is caught while copying.
	lying := audio.Upload{Filename: "lie.wav", Size: 10, Body: bytes.NewReader(big)}
	res = p.svc.Transcribe(context.Background(), lying)
	require.False(t, res.OK())
	assert.Equal(t, transcription.CodePayloadTooLarge, res.Err.Code)

	res = p.svc.Transcribe(context.Background(), upload("empty.wav", nil))
	require.False(t, res.OK())
	assert.Equal(t, transcription.CodeEmptyFile, res.Err.Code)

	assert.Equal(t, int32(0), p.decoder.calls.Load())
	p.assertClean(t)
}

func TestIdempotentResults(t *testing.T) {
	p := newPipeline(t, pipelineOpts{})
	p.model.Respond = func(samples []float32, rate int) string {
		return fmt.Sprintf("n=%d mid=%.6f", len(samples), samples[len(samples)/2])
	}
	stereo := testutil.Interleave(testutil.Tone(22050, 44100, 300, 0.3), testutil.Tone(22050, 44100, 500, 0.6))
	data := testutil.WAVBytes(t, stereo, 44100, 2, 16)

	first := p.svc.Transcribe(context.Background(), upload("a.wav", data))
	second := p.svc.Transcribe(context.Background(), upload("a.wav", data))
	require.True(t, first.OK(), "unexpected error: %v", first.Err)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.AudioDuration, second.AudioDuration)
	p.assertClean(t)
}

func TestConcurrentRequestsDoNotInterleave(t *testing.T) {
	p := newPipeline(t, pipelineOpts{maxConcurrency: 4})
	p.model.Respond = func(samples []float32, _ int) string { return fmt.Sprintf("clip %d", len(samples)) }
	p.model.SetLatency(2 * time.Millisecond)

	const n = 16
	results := make([]transcription.Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		data := wav16(t, testutil.Tone(800*(i+1), 16000, 440, 0.4), 16000)
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			results[i] = p.svc.Transcribe(context.Background(), upload(fmt.Sprintf("clip-%d.wav", i), data))
		}(i, data)
	}
	wg.Wait()

	for i, res := range results {
		require.True(t, res.OK(), "request %d: %v", i, res.Err)
		assert.Equal(t, fmt.Sprintf("clip-%d.wav", i), res.Filename)
		assert.Equal(t, fmt.Sprintf("clip %d", 800*(i+1)), res.Text)
	}
	assert.Equal(t, 1, p.loader.Loads())
	assert.LessOrEqual(t, p.model.PeakConcurrency(), 4)
	p.assertClean(t)
}

func TestEngineFailureIsContained(t *testing.T) {
	p := newPipeline(t, pipelineOpts{loader: testutil.FailingLoader(nil)})
	data := wav16(t, testutil.Tone(1600, 16000, 440, 0.5), 16000)

	var wg sync.WaitGroup
	results := make([]transcription.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.svc.Transcribe(context.Background(), upload("x.wav", data))
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindEngineUnavailable, res.Err.Kind)
		assert.Empty(t, res.Text)
	}
	assert.Equal(t, 1, p.loader.Loads(), "a failed load is not retried")
	assert.Equal(t, inference.StateFailed, p.engine.State())

	// Validation still runs ahead of the engine.
	res := p.svc.Transcribe(context.Background(), upload("x.txt", data))
	assert.Equal(t, transcription.KindValidation, res.Err.Kind)
	p.assertClean(t)
}

func TestFailureKindsAndCleanup(t *testing.T) {
	tone := func(t *testing.T) []byte { return wav16(t, testutil.Tone(1600, 16000, 440, 0.5), 16000) }

	t.Run("decode", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		res := p.svc.Transcribe(context.Background(), upload("bad.wav", []byte("definitely not a riff file")))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindDecode, res.Err.Kind)
		assert.Equal(t, 0, p.model.Calls())
		p.assertClean(t)
	})

	t.Run("mismatched content", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		res := p.svc.Transcribe(context.Background(), upload("actually-wav.flac", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindDecode, res.Err.Kind)
		p.assertClean(t)
	})

	t.Run("inference", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		p.model.SetError(fmt.Errorf("cuda out of memory"))
		res := p.svc.Transcribe(context.Background(), upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindInference, res.Err.Kind)
		assert.Equal(t, inference.StateReady, p.engine.State())
		p.assertClean(t)
	})

	t.Run("backend panic", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		p.model.PanicWith = "segfault"
		res := p.svc.Transcribe(context.Background(), upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindInference, res.Err.Kind)
		p.assertClean(t)
	})

	t.Run("timeout", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{timeout: 30 * time.Millisecond})
		p.model.SetLatency(time.Second)
		res := p.svc.Transcribe(context.Background(), upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindTimeout, res.Err.Kind)
		assert.Equal(t, inference.StateReady, p.engine.State())
		p.assertClean(t)
	})

	t.Run("canceled", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		p.model.SetLatency(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)
		res := p.svc.Transcribe(ctx, upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindCanceled, res.Err.Kind)
		p.assertClean(t)
	})

	t.Run("deadline while model loads", func(t *testing.T) {
		loader := testutil.NewFakeLoader(testutil.NewFakeModel())
		loader.Gate = make(chan struct{})
		p := newPipeline(t, pipelineOpts{loader: loader, timeout: 20 * time.Millisecond})
		defer close(loader.Gate)

		res := p.svc.Transcribe(context.Background(), upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindTimeout, res.Err.Kind)
		assert.Contains(t, res.Err.Message, "load")
		assert.Equal(t, inference.StateLoading, p.engine.State())
		p.assertClean(t)
	})

	t.Run("engine loading", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		svc := transcription.NewService(p.validator, p.storage, audio.NewDecoder(16000, "", nil),
			recognizerFunc(func() error { return inference.ErrLoading }), transcription.Options{}, nil)

		res := svc.Transcribe(context.Background(), upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindEngineLoading, res.Err.Kind)
		p.assertClean(t)
	})

	t.Run("storage", func(t *testing.T) {
		p := newPipeline(t, pipelineOpts{})
		require.NoError(t, os.RemoveAll(p.storage.Dir()))
		res := p.svc.Transcribe(context.Background(), upload("a.wav", tone(t)))
		require.False(t, res.OK())
		assert.Equal(t, transcription.KindStorage, res.Err.Kind)
		assert.Equal(t, int64(0), p.storage.Outstanding())
	})
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := transcription.NewError(transcription.KindDecode, transcription.CodeDecodeFailed, "bad", nil)
	assert.ErrorIs(t, err, &transcription.Error{Kind: transcription.KindDecode})
	assert.NotErrorIs(t, err, &transcription.Error{Kind: transcription.KindStorage})
	assert.Contains(t, err.Error(), "decode")
}
