// Package tempfile stores request uploads on disk for exactly as long as the
// request needs them.
package tempfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const filePrefix = "upload-"

// DefaultStaleAfter is how old an upload file must be before Sweep treats it
// as abandoned. Younger files may belong to another process sharing the dir.
const DefaultStaleAfter = time.Hour

// ErrTooLarge is returned when the stream holds more bytes than the manager allows.
var ErrTooLarge = errors.New("upload exceeds maximum size")

// StorageError reports that a transient file could not be allocated or written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("tempfile %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tempfile %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Manager hands out uniquely named files in one directory and tracks how
// many are still alive.
type Manager struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger

	outstanding atomic.Int64
	// OnChange, when set, observes the live handle count after every change.
	OnChange func(n int64)
}

// NewManager creates dir if needed. maxBytes <= 0 disables the size check.
func NewManager(dir string, maxBytes int64, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Manager{
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logger.With(zap.String("component", "tempfile")),
	}, nil
}

// Dir returns the directory files are created in
func (m *Manager) Dir() string { return m.dir }

// Outstanding returns the number of handles not yet released.
func (m *Manager) Outstanding() int64 { return m.outstanding.Load() }

func (m *Manager) track(delta int64) {
	n := m.outstanding.Add(delta)
	if m.OnChange != nil {
		m.OnChange(n)
	}
}

// Acquire copies r into a fresh file. The name never derives from caller
// input. On any failure nothing is left on disk.
func (m *Manager) Acquire(ctx context.Context, r io.Reader) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(m.dir, filePrefix+uuid.NewString()+".bin")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}
	h := &Handle{path: path, manager: m}
	m.track(1)

	if err := m.fill(ctx, f, r); err != nil {
		_ = f.Close()
		h.Release()
		return nil, err
	}
	if err := f.Close(); err != nil {
		h.Release()
		return nil, &StorageError{Op: "close", Path: path, Err: err}
	}
	return h, nil
}

func (m *Manager) fill(ctx context.Context, f *os.File, r io.Reader) error {
	src := io.Reader(&ctxReader{ctx: ctx, r: r})
	if m.maxBytes > 0 {
		// One extra byte tells an exact-limit upload from an oversized one.
		src = io.LimitReader(src, m.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &StorageError{Op: "write", Path: f.Name(), Err: err}
	}
	if m.maxBytes > 0 && n > m.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// With acquires a file, runs fn and releases the file however fn exits,
// including panics. Release is not tied to ctx.
func (m *Manager) With(ctx context.Context, r io.Reader, fn func(h *Handle) error) error {
	h, err := m.Acquire(ctx, r)
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h)
}

// Sweep deletes upload files last modified more than olderThan ago, left
// behind by a process that died mid-request, and returns how many it removed.
func (m *Manager) Sweep(olderThan time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, filePrefix+"*"))
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error
	for _, path := range matches {
		if !strings.HasSuffix(path, ".bin") {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("removed stale upload files", zap.Int("count", removed), zap.String("dir", m.dir))
	}
	return removed, errors.Join(errs...)
}

// Handle is one live transient file.
type Handle struct {
	path    string
	manager *Manager
	once    sync.Once
}

// Path returns the file location. It is only valid until Release.
func (h *Handle) Path() string { return h.path }

// Release deletes the file. Calling it more than once is safe.
func (h *Handle) Release() {
	h.once.Do(func() {
		if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.manager.logger.Warn("failed to remove transient file", zap.String("path", h.path), zap.Error(err))
		}
		h.manager.track(-1)
	})
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
