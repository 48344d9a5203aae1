package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(ctx context.Context, path string) (*pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, decodeErr(FormatWAV, "cannot open audio", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, decodeErr(FormatWAV, "invalid or empty WAV stream", dec.Err())
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, decodeErr(FormatWAV, fmt.Sprintf("unsupported WAV encoding %d, only integer PCM is accepted", dec.WavAudioFormat), nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, decodeErr(FormatWAV, "truncated or corrupt PCM data", err)
	}

	bitDepth := int(dec.BitDepth)
	samples := make([]float32, len(buf.Data))
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		for i, v := range buf.Data {
			samples[i] = float32(v-128) / 128
		}
	case 16, 24, 32:
		scale := float32(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			samples[i] = float32(v) / scale
		}
	default:
		return nil, decodeErr(FormatWAV, fmt.Sprintf("unsupported bit depth %d", bitDepth), nil)
	}

	return &pcm{
		samples:  samples,
		rate:     int(dec.SampleRate),
		channels: int(dec.NumChans),
	}, nil
}

func decodeMP3(ctx context.Context, path string) (*pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, decodeErr(FormatMP3, "cannot open audio", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, decodeErr(FormatMP3, "invalid MP3 stream", err)
	}

	// go-mp3 always emits 16-bit little-endian stereo.
	data, err := io.ReadAll(ctxReader{ctx: ctx, r: dec})
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, decodeErr(FormatMP3, "truncated or corrupt MP3 frames", err)
	}

	return &pcm{
		samples:  pcm16ToFloat(data),
		rate:     dec.SampleRate(),
		channels: 2,
	}, nil
}

func decodeFLAC(ctx context.Context, path string) (*pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, decodeErr(FormatFLAC, "cannot open audio", err)
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return nil, decodeErr(FormatFLAC, "invalid FLAC stream", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bps := int(info.BitsPerSample)
	if channels < 1 || bps < 4 || bps > 32 {
		return nil, decodeErr(FormatFLAC, fmt.Sprintf("invalid stream info (channels=%d, bits=%d)", channels, bps), nil)
	}
	scale := float32(int64(1) << (bps - 1))

	var samples []float32
	if info.NSamples > 0 {
		samples = make([]float32, 0, int(info.NSamples)*channels)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, decodeErr(FormatFLAC, "truncated or corrupt FLAC frame", err)
		}
		if len(frame.Subframes) != channels {
			return nil, decodeErr(FormatFLAC, "frame channel count does not match stream info", nil)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				samples = append(samples, float32(frame.Subframes[c].Samples[i])/scale)
			}
		}
	}

	return &pcm{
		samples:  samples,
		rate:     int(info.SampleRate),
		channels: channels,
	}, nil
}

func decodeOGG(ctx context.Context, path string) (*pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, decodeErr(FormatOGG, "cannot open audio", err)
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, decodeErr(FormatOGG, "invalid Ogg/Vorbis stream", err)
	}

	channels := r.Channels()
	if channels < 1 {
		return nil, decodeErr(FormatOGG, "stream reports no channels", nil)
	}

	var samples []float32
	buf := make([]float32, 4096*channels)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		samples = append(samples, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, decodeErr(FormatOGG, "truncated or corrupt Vorbis packet", err)
		}
	}

	return &pcm{
		samples:  samples,
		rate:     r.SampleRate(),
		channels: channels,
	}, nil
}
