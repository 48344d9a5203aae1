package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// downmix averages interleaved channels into a mono signal.
func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	inv := 1 / float32(channels)
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += interleaved[base+c]
		}
		mono[i] = sum * inv
	}
	return mono
}

// resample converts mono samples between rates. A new resampler is built
// per call so no filter state leaks across requests.
func resample(samples []float32, from, to int) ([]float32, error) {
	if from == to || len(samples) == 0 {
		return samples, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	in := make([]float64, len(samples))
	for i, v := range samples {
		in[i] = float64(v)
	}

	out, err := r.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush error: %w", err)
	}
	out = append(out, tail...)

	// Flush drains the filter with zero padding, so the output is trimmed
	// (or padded) to exactly the duration of the input.
	res := make([]float32, resampledLength(len(samples), from, to))
	for i := 0; i < len(res) && i < len(out); i++ {
		res[i] = float32(out[i])
	}
	return res, nil
}

// normalizePeak scales samples in place so the largest magnitude is 1.
// Silent input is left untouched.
func normalizePeak(samples []float32) {
	var peak float64
	for _, v := range samples {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	if peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return
	}
	scale := float32(1 / peak)
	for i := range samples {
		samples[i] *= scale
	}
}

// pcm16ToFloat converts little-endian signed 16-bit PCM to floats.
func pcm16ToFloat(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		out[i] = float32(v) / 32768
	}
	return out
}

func resampledLength(n, from, to int) int {
	return int(math.Round(float64(n) * float64(to) / float64(from)))
}
