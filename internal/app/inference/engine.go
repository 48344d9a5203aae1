package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// State is the lifecycle state of an Engine.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DefaultLoadTimeout bounds a model load when Options.LoadTimeout is unset.
const DefaultLoadTimeout = 10 * time.Minute

// Model is a loaded, ready-to-run acoustic model.
type Model interface {
	// Transcribe runs greedy decoding over mono samples at sampleRate.
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
	Close() error
}

// Info is static metadata about a backend, known before the model loads.
type Info struct {
	Backend    string
	Model      string
	ModelType  string
	Device     string
	SampleRate int
	// Concurrency is how many Transcribe calls the backend tolerates at once; 0 means no limit.
	Concurrency int
}

// Loader constructs a Model. Load is called at most once per Engine.
type Loader interface {
	Info() Info
	Load(ctx context.Context) (Model, error)
}

// Options tunes an Engine
type Options struct {
	// MaxConcurrency caps parallel inference; 0 defers to the backend.
	MaxConcurrency int
	LoadTimeout    time.Duration
	// Normalize post-processes model output. Defaults to NormalizeText.
	Normalize func(string) string
	// OnStateChange is invoked synchronously on every transition.
	OnStateChange func(State)
}

// Snapshot is a point-in-time view of the engine for health reporting.
type Snapshot struct {
	State        State
	Info         Info
	Err          error
	LoadedAt     time.Time
	LoadDuration time.Duration
	Concurrency  int
}

// Engine owns the process-wide model. Loading happens exactly once, either
// eagerly through Start or lazily on the first Transcribe. A failed load is
// permanent for the lifetime of the Engine.
type Engine struct {
	loader Loader
	info   Info
	opts   Options
	logger *zap.Logger

	state atomic.Int32
	once  sync.Once
	done  chan struct{}

	mu       sync.RWMutex
	model    Model
	loadErr  error
	loadedAt time.Time
	loadTook time.Duration
	closed   bool

	sem         *semaphore.Weighted
	concurrency int
	inflight    sync.WaitGroup
}

// NewEngine creates an Engine in the Uninitialized state. Nothing is loaded yet.
func NewEngine(loader Loader, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Normalize == nil {
		opts.Normalize = NormalizeText
	}

	info := loader.Info()
	e := &Engine{
		loader: loader,
		info:   info,
		opts:   opts,
		logger: logger.With(zap.String("component", "engine"), zap.String("backend", info.Backend)),
		done:   make(chan struct{}),
	}
	e.concurrency = concurrencyLimit(opts.MaxConcurrency, info.Concurrency)
	if e.concurrency > 0 {
		e.sem = semaphore.NewWeighted(int64(e.concurrency))
	}
	return e
}

func concurrencyLimit(configured, backend int) int {
	switch {
	case configured <= 0:
		return backend
	case backend <= 0:
		return configured
	default:
		return min(configured, backend)
	}
}

// Start triggers the one-shot model load in the background and returns immediately.
func (e *Engine) Start() {
	e.once.Do(func() {
		e.setState(StateLoading)
		go e.load()
	})
}

// Wait blocks until loading finished or ctx is done. It returns the sticky
// *InitError after a failed load.
func (e *Engine) Wait(ctx context.Context) error {
	select {
	case <-e.done:
	default:
		select {
		case <-e.done:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrLoading, ctx.Err())
		}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadErr
}

// Load starts loading if needed and waits for the outcome.
func (e *Engine) Load(ctx context.Context) error {
	e.Start()
	return e.Wait(ctx)
}

func (e *Engine) load() {
	// Detached from any request: one caller giving up must not fail the engine.
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.LoadTimeout)
	defer cancel()

	e.logger.Info("loading inference model",
		zap.String("model", e.info.Model),
		zap.String("device", e.info.Device))

	start := time.Now()
	model, err := e.safeLoad(ctx)
	took := time.Since(start)
	if err == nil && model == nil {
		err = errors.New("backend returned no model")
	}

	e.mu.Lock()
	e.loadTook = took
	if err != nil {
		e.loadErr = &InitError{Backend: e.info.Backend, Err: err}
	} else if e.closed {
		_ = model.Close()
		e.loadErr = &InitError{Backend: e.info.Backend, Err: ErrClosed}
		err = ErrClosed
	} else {
		e.model = model
		e.loadedAt = time.Now()
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("inference model failed to load", zap.Error(err), zap.Duration("elapsed", took))
		e.setState(StateFailed)
	} else {
		e.logger.Info("inference model ready", zap.Duration("elapsed", took))
		e.setState(StateReady)
	}
	close(e.done)
}

func (e *Engine) safeLoad(ctx context.Context) (model Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			model = nil
			err = fmt.Errorf("panic while loading model: %v", r)
		}
	}()
	return e.loader.Load(ctx)
}

// Transcribe runs one inference. On an Uninitialized engine it triggers the
// load and waits for it; on a Failed engine it returns the *InitError
// immediately. Calls beyond the concurrency limit queue until a slot frees
// or ctx is done.
func (e *Engine) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	e.Start()
	if err := e.Wait(ctx); err != nil {
		return "", err
	}
	if e.info.SampleRate > 0 && sampleRate != e.info.SampleRate {
		return "", &InferenceError{Err: fmt.Errorf("signal rate %d Hz does not match model rate %d Hz", sampleRate, e.info.SampleRate)}
	}

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
	}

	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		if e.sem != nil {
			e.sem.Release(1)
		}
		return "", ErrClosed
	}
	model := e.model
	e.inflight.Add(1)
	e.mu.RUnlock()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		// The slot is held until the backend returns, even if the caller
		// stopped waiting, so the concurrency limit stays truthful.
		defer e.inflight.Done()
		if e.sem != nil {
			defer e.sem.Release(1)
		}
		text, err := e.safeTranscribe(ctx, model, samples, sampleRate)
		ch <- result{text: text, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if ctx.Err() != nil && isContextErr(r.err) {
				return "", ctx.Err()
			}
			var ie *InferenceError
			if errors.As(r.err, &ie) {
				return "", ie
			}
			return "", &InferenceError{Err: r.err}
		}
		return e.opts.Normalize(r.text), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (e *Engine) safeTranscribe(ctx context.Context, model Model, samples []float32, rate int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recovered panic in inference backend", zap.Any("panic", r))
			text = ""
			err = &InferenceError{Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()
	return model.Transcribe(ctx, samples, rate)
}

// State returns the current lifecycle state without blocking.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Ready reports whether the engine can serve requests right now
func (e *Engine) Ready() bool {
	return e.State() == StateReady
}

// Info returns static backend metadata
func (e *Engine) Info() Info {
	return e.info
}

// Snapshot returns the engine state for health reporting. It never triggers
// loading and never waits for it.
func (e *Engine) Snapshot() Snapshot {
	st := e.State()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		State:        st,
		Info:         e.info,
		Err:          e.loadErr,
		LoadedAt:     e.loadedAt,
		LoadDuration: e.loadTook,
		Concurrency:  e.concurrency,
	}
}

// Close waits for in-flight inferences and releases the model.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	model := e.model
	e.mu.Unlock()

	e.inflight.Wait()
	if model != nil {
		return model.Close()
	}
	return nil
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	if e.opts.OnStateChange != nil {
		e.opts.OnStateChange(s)
	}
}
