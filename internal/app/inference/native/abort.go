//go:build cgo

package native

import (
	"context"
	"runtime/cgo"
	"unsafe"
)

// shouldAbort is polled by whisper.cpp between decoder steps. userData points
// at a cgo.Handle wrapping the request context.
func shouldAbort(userData unsafe.Pointer) bool {
	if userData == nil {
		return false
	}
	handle := *(*cgo.Handle)(userData)
	if handle == 0 {
		return false
	}

	var ctx context.Context
	func() {
		defer func() { _ = recover() }()
		ctx, _ = handle.Value().(context.Context)
	}()
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
