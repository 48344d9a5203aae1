// Package transcription runs the request pipeline: validate, store, decode,
// infer and assemble a result.
package transcription

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/metrics"
	"speech-transcription/internal/app/tempfile"
)

// Status is the outcome reported to clients
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Validator checks upload metadata
type Validator interface {
	Validate(up audio.Upload) audio.ValidationResult
}

// Storage scopes an upload to a transient file
type Storage interface {
	With(ctx context.Context, r io.Reader, fn func(h *tempfile.Handle) error) error
}

// Decoder turns a stored file into a model-ready signal
type Decoder interface {
	Decode(ctx context.Context, path string, format audio.Format) (*audio.Signal, error)
}

// Recognizer runs inference on a signal
type Recognizer interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// Result is what one request produced. Text is empty whenever Status is error.
type Result struct {
	Filename      string
	Text          string
	Status        Status
	Err           *Error
	Format        audio.Format
	Duration      time.Duration
	AudioDuration time.Duration
}

// OK reports success
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Options tunes a Service
type Options struct {
	// Timeout bounds storage, decode and inference. Zero disables it.
	Timeout time.Duration
	Metrics metrics.Recorder
}

// Service is safe for concurrent use; it keeps no per-request state.
type Service struct {
	validator  Validator
	storage    Storage
	decoder    Decoder
	recognizer Recognizer
	timeout    time.Duration
	metrics    metrics.Recorder
	logger     *zap.Logger
}

func NewService(v Validator, s Storage, d Decoder, r Recognizer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Service{
		validator:  v,
		storage:    s,
		decoder:    d,
		recognizer: r,
		timeout:    opts.Timeout,
		metrics:    opts.Metrics,
		logger:     logger.With(zap.String("component", "transcription")),
	}
}

// Transcribe runs the whole pipeline once. It never returns a Go error;
// failures are carried in Result.Err. The transient file is gone by the
// time it returns, whatever happened.
func (s *Service) Transcribe(ctx context.Context, up audio.Upload) (res Result) {
	start := time.Now()
	res.Filename = up.Filename
	s.metrics.InflightAdd(1)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered panic in transcription pipeline", zap.String("filename", up.Filename), zap.Any("panic", r))
			res = s.fail(res, NewError(KindInference, CodeInferenceFailed, "transcription failed", fmt.Errorf("panic: %v", r)))
		}
		res.Duration = time.Since(start)
		s.metrics.InflightAdd(-1)
		s.metrics.ObserveStage(metrics.StageTotal, res.Duration)
		s.metrics.RequestFinished(string(res.Status), errKind(res.Err), string(res.Format))
		s.logResult(res)
	}()

	vr := s.validator.Validate(up)
	res.Format = vr.Format
	if !vr.OK {
		return s.fail(res, validationError(vr))
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var text string
	var audioDur time.Duration
	stored := time.Now()
	err := s.storage.With(runCtx, up.Body, func(h *tempfile.Handle) error {
		s.metrics.ObserveStage(metrics.StageStore, time.Since(stored))

		decodeStart := time.Now()
		sig, err := s.decoder.Decode(runCtx, h.Path(), vr.Format)
		if err != nil {
			return err
		}
		s.metrics.ObserveStage(metrics.StageDecode, time.Since(decodeStart))
		audioDur = sig.Duration()
		s.metrics.ObserveAudio(audioDur)

		inferStart := time.Now()
		out, err := s.recognizer.Transcribe(runCtx, sig.Samples, sig.SampleRate)
		if err != nil {
			return err
		}
		s.metrics.ObserveStage(metrics.StageInference, time.Since(inferStart))
		text = out
		return nil
	})
	res.AudioDuration = audioDur
	if err != nil {
		return s.fail(res, classify(ctx, err))
	}

	res.Text = text
	res.Status = StatusSuccess
	return res
}

func (s *Service) fail(res Result, err *Error) Result {
	res.Status = StatusError
	res.Text = ""
	res.Err = err
	return res
}

func (s *Service) logResult(res Result) {
	fields := []zap.Field{
		zap.String("filename", res.Filename),
		zap.String("format", string(res.Format)),
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", res.Duration),
		zap.Duration("audio_duration", res.AudioDuration),
	}
	if res.Err == nil {
		s.logger.Info("transcription completed", fields...)
		return
	}
	fields = append(fields, zap.String("kind", string(res.Err.Kind)), zap.String("code", res.Err.Code))
	if res.Err.Err != nil {
		fields = append(fields, zap.Error(res.Err.Err))
	}
	switch res.Err.Kind {
	case KindValidation, KindCanceled:
		s.logger.Info("transcription rejected", append(fields, zap.String("reason", res.Err.Message))...)
	default:
		s.logger.Warn("transcription failed", fields...)
	}
}

func errKind(err *Error) string {
	if err == nil {
		return ""
	}
	return string(err.Kind)
}
