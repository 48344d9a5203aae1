package inference

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLoading is returned when a caller gives up waiting for the model to load.
	ErrLoading = errors.New("inference engine is still loading")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("inference engine is closed")
)

// InitError records why the model could not be loaded. It is sticky: every
// later Transcribe call returns the same error.
type InitError struct {
	Backend string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("inference engine %s failed to initialize: %v", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// InferenceError is a per-request model failure. Engine state is unaffected.
type InferenceError struct {
	Err   error
	Panic bool
}

func (e *InferenceError) Error() string {
	if e.Panic {
		return fmt.Sprintf("inference crashed: %v", e.Err)
	}
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
