package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"speech-transcription/internal/app/inference"
)

// ErrFakeLoad is the default load failure used by FailingLoader.
var ErrFakeLoad = errors.New("model weights are corrupt")

// FakeModel is a deterministic stand-in for an acoustic model.
//
// Silent input transcribes to "". Otherwise the response is looked up by
// sample count in Responses, falling back to Respond, then DefaultResponse.
type FakeModel struct {
	mu sync.Mutex

	Responses       map[int]string
	Respond         func(samples []float32, rate int) string
	DefaultResponse string
	Latency         time.Duration
	Err             error
	PanicWith       any

	calls  atomic.Int64
	closed atomic.Bool
	active atomic.Int64
	peak   atomic.Int64
	seen   []int
}

// NewFakeModel creates a FakeModel answering DefaultResponse for non-silent audio.
func NewFakeModel() *FakeModel {
	return &FakeModel{
		Responses:       make(map[int]string),
		DefaultResponse: "SPEECH",
	}
}

// Transcribe implements inference.Model
func (m *FakeModel) Transcribe(ctx context.Context, samples []float32, rate int) (string, error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	m.mu.Lock()
	m.seen = append(m.seen, len(samples))
	latency, err, panicWith := m.Latency, m.Err, m.PanicWith
	m.mu.Unlock()

	if panicWith != nil {
		panic(panicWith)
	}
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}

	if isSilent(samples) {
		return "", nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if text, ok := m.Responses[len(samples)]; ok {
		return text, nil
	}
	if m.Respond != nil {
		return m.Respond(samples, rate), nil
	}
	return m.DefaultResponse, nil
}

// Close implements inference.Model
func (m *FakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

// SetResponse maps a sample count to a transcript
func (m *FakeModel) SetResponse(samples int, text string) *FakeModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[samples] = text
	return m
}

// SetError makes every later call fail with err
func (m *FakeModel) SetError(err error) *FakeModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
	return m
}

// SetLatency delays every later call
func (m *FakeModel) SetLatency(d time.Duration) *FakeModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Latency = d
	return m
}

// Calls returns how many times Transcribe ran
func (m *FakeModel) Calls() int { return int(m.calls.Load()) }

// PeakConcurrency returns the most simultaneous Transcribe calls observed
func (m *FakeModel) PeakConcurrency() int { return int(m.peak.Load()) }

// Closed reports whether Close was called
func (m *FakeModel) Closed() bool { return m.closed.Load() }

// SeenLengths returns the sample counts of every call, in arrival order
func (m *FakeModel) SeenLengths() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.seen...)
}

func isSilent(samples []float32) bool {
	for _, v := range samples {
		if v != 0 {
			return false
		}
	}
	return true
}

// FakeLoader hands out a FakeModel and counts loads.
type FakeLoader struct {
	Model     *FakeModel
	Err       error
	Delay     time.Duration
	Gate      chan struct{}
	PanicWith any
	InfoValue inference.Info

	loads atomic.Int64
}

// NewFakeLoader returns a loader for model at 16 kHz with no concurrency limit.
func NewFakeLoader(model *FakeModel) *FakeLoader {
	return &FakeLoader{
		Model: model,
		InfoValue: inference.Info{
			Backend:    "fake",
			Model:      "fake-base",
			ModelType:  "fake",
			Device:     "cpu",
			SampleRate: 16000,
		},
	}
}

// FailingLoader returns a loader whose Load always fails.
func FailingLoader(err error) *FakeLoader {
	if err == nil {
		err = ErrFakeLoad
	}
	l := NewFakeLoader(nil)
	l.Err = err
	return l
}

// Info implements inference.Loader
func (l *FakeLoader) Info() inference.Info { return l.InfoValue }

// Load implements inference.Loader
func (l *FakeLoader) Load(ctx context.Context) (inference.Model, error) {
	l.loads.Add(1)
	if l.Gate != nil {
		select {
		case <-l.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if l.Delay > 0 {
		time.Sleep(l.Delay)
	}
	if l.PanicWith != nil {
		panic(l.PanicWith)
	}
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Model, nil
}

// Loads returns how many times Load ran
func (l *FakeLoader) Loads() int { return int(l.loads.Load()) }
