package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// pcm is decoder output before mixing and resampling: interleaved floats.
type pcm struct {
	samples  []float32
	rate     int
	channels int
}

// Decoder turns a stored upload into a normalized mono Signal at the target rate.
// It is stateless and safe for concurrent use.
type Decoder struct {
	targetRate int
	ffmpegPath string
	logger     *zap.Logger
}

// NewDecoder creates a Decoder producing signals at targetRate.
func NewDecoder(targetRate int, ffmpegPath string, logger *zap.Logger) *Decoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		targetRate: targetRate,
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// TargetRate is the sample rate of every decoded Signal
func (d *Decoder) TargetRate() int {
	return d.targetRate
}

// Decode reads path as the declared format. Corrupt or mismatched content
// yields a *DecodeError; context errors are returned unwrapped.
func (d *Decoder) Decode(ctx context.Context, path string, format Format) (sig *Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = decodeErr(format, "decoder crashed on malformed input", fmt.Errorf("%v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := sniffFile(path, format); err != nil {
		return nil, err
	}

	start := time.Now()
	var raw *pcm
	switch format {
	case FormatWAV:
		raw, err = decodeWAV(ctx, path)
	case FormatMP3:
		raw, err = decodeMP3(ctx, path)
	case FormatFLAC:
		raw, err = decodeFLAC(ctx, path)
	case FormatOGG:
		raw, err = decodeOGG(ctx, path)
	case FormatM4A, FormatWebM:
		raw, err = d.decodeFFmpeg(ctx, path, format)
	default:
		return nil, decodeErr(format, "no decoder for format", nil)
	}
	if err != nil {
		return nil, err
	}
	if raw.rate <= 0 || raw.channels <= 0 {
		return nil, decodeErr(format, fmt.Sprintf("invalid stream parameters (rate=%d, channels=%d)", raw.rate, raw.channels), nil)
	}
	if len(raw.samples) < raw.channels {
		return nil, decodeErr(format, "stream contains no audio samples", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mono := downmix(raw.samples, raw.channels)
	out, err := resample(mono, raw.rate, d.targetRate)
	if err != nil {
		return nil, decodeErr(format, "resampling failed", err)
	}
	normalizePeak(out)

	sig = &Signal{
		Samples:        out,
		SampleRate:     d.targetRate,
		Channels:       1,
		SourceFormat:   format,
		SourceRate:     raw.rate,
		SourceChannels: raw.channels,
	}
	d.logger.Debug("decoded audio",
		zap.String("format", string(format)),
		zap.Int("source_rate", raw.rate),
		zap.Int("source_channels", raw.channels),
		zap.Duration("audio_duration", sig.Duration()),
		zap.Duration("elapsed", time.Since(start)))
	return sig, nil
}

// ctxReader aborts long reads once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
