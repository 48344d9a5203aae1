//go:build whispercpp

package native

/*
#cgo CFLAGS: -I${SRCDIR}/../../../../third_party/whisper.cpp/include -I${SRCDIR}/../../../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include <stdlib.h>
#include "whisper.h"
#include "ggml.h"

bool transcribeGoAbort(void * user_data);
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/cgo"
	"strings"
	"sync"
	"unsafe"
)

// Available reports whether whisper.cpp is linked in
func Available() bool { return true }

type whisperContext struct {
	mu       sync.Mutex
	ctx      *C.struct_whisper_context
	language string
	threads  int
}

func newContext(modelPath string, s Settings) (*whisperContext, error) {
	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))

	params := C.whisper_context_default_params()
	params.use_gpu = C.bool(s.Device == "gpu")

	ctx := C.whisper_init_from_file_with_params(cPath, params)
	if ctx == nil {
		return nil, fmt.Errorf("whisper: failed to initialise context for %s", modelPath)
	}

	threads := s.Threads
	if threads <= 0 {
		threads = min(runtime.NumCPU(), 8)
	}
	return &whisperContext{ctx: ctx, language: s.Language, threads: threads}, nil
}

func (w *whisperContext) Transcribe(ctx context.Context, samples []float32, rate int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil {
		return "", errors.New("whisper: context is closed")
	}

	state := C.whisper_init_state(w.ctx)
	if state == nil {
		return "", errors.New("whisper: failed to initialise state")
	}
	defer C.whisper_free_state(state)

	params := C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
	params.print_progress = C.bool(false)
	params.print_realtime = C.bool(false)
	params.print_timestamps = C.bool(false)
	params.translate = C.bool(false)
	params.no_context = C.bool(true)
	params.temperature = C.float(0)
	params.temperature_inc = C.float(0)
	params.n_threads = C.int(w.threads)

	lang := strings.TrimSpace(w.language)
	if lang == "" {
		lang = "auto"
	}
	cLang := C.CString(lang)
	defer C.free(unsafe.Pointer(cLang))
	params.language = cLang
	params.detect_language = C.bool(false)

	handle := cgo.NewHandle(ctx)
	defer handle.Delete()
	params.abort_callback = (C.ggml_abort_callback)(C.transcribeGoAbort)
	params.abort_callback_user_data = unsafe.Pointer(&handle)

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	if ret := C.whisper_full_with_state(w.ctx, state, params, cSamples, C.int(len(samples))); ret != 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("whisper: inference failed with code %d", int(ret))
	}

	n := int(C.whisper_full_n_segments_from_state(state))
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(C.GoString(C.whisper_full_get_segment_text_from_state(state, C.int(i))))
	}
	return b.String(), nil
}

func (w *whisperContext) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx != nil {
		C.whisper_free(w.ctx)
		w.ctx = nil
	}
	return nil
}

//export transcribeGoAbort
func transcribeGoAbort(userData unsafe.Pointer) C.bool {
	return C.bool(shouldAbort(userData))
}
