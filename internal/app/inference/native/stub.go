//go:build !whispercpp

package native

import (
	"context"
)

// Available reports whether whisper.cpp is linked in
func Available() bool { return false }

type whisperContext struct{}

func newContext(string, Settings) (*whisperContext, error) { return nil, ErrUnavailable }

func (*whisperContext) Transcribe(context.Context, []float32, int) (string, error) {
	return "", ErrUnavailable
}

func (*whisperContext) Close() error { return nil }
