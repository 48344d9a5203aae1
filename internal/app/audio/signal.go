package audio

import (
	"errors"
	"fmt"
	"time"
)

// Signal is a decoded mono waveform ready for inference.
// Samples are in [-1, 1] at SampleRate.
type Signal struct {
	Samples    []float32
	SampleRate int
	Channels   int

	SourceFormat   Format
	SourceRate     int
	SourceChannels int
}

// Duration of the signal at its current rate
func (s *Signal) Duration() time.Duration {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// IsSilent reports whether every sample is exactly zero
func (s *Signal) IsSilent() bool {
	for _, v := range s.Samples {
		if v != 0 {
			return false
		}
	}
	return true
}

// ErrDecode is matched by every DecodeError via errors.Is.
var ErrDecode = errors.New("audio decode failed")

// DecodeError reports undecodable or corrupt audio content.
type DecodeError struct {
	Format Format
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("could not decode %s audio: %s", e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) true for any DecodeError
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(f Format, reason string, err error) *DecodeError {
	return &DecodeError{Format: f, Reason: reason, Err: err}
}
