package app

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"speech-transcription/internal/app/audio"
	"speech-transcription/internal/app/tempfile"
	"speech-transcription/internal/app/transcription"
)

// DefaultShutdownTimeout bounds graceful shutdown of in-flight requests
const DefaultShutdownTimeout = 30 * time.Second

// Run serves HTTP until ctx is done or the listener fails, then drains
// in-flight requests. A model load failure does not stop the server; it is
// reported through /health instead.
func (a *App) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	a.SweepStorage()
	if a.Config.Engine.LoadOnStart {
		a.Engine.Start()
	}

	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("failed to start server on %s: %w", a.Config.Server.Addr(), err)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown requested")
	case err, ok := <-a.Server.Errors():
		if ok {
			serveErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// SweepStorage removes uploads abandoned by a crashed server. Only files older
// than twice the request timeout (and at least an hour) are touched, so other
// processes sharing the directory keep their in-flight files.
func (a *App) SweepStorage() int {
	staleAfter := max(tempfile.DefaultStaleAfter, 2*a.Config.Request.Timeout)
	removed, err := a.Storage.Sweep(staleAfter)
	if err != nil {
		a.Logger.Warn("failed to sweep leftover upload files", zap.String("dir", a.Storage.Dir()), zap.Error(err))
	}
	return removed
}

// TranscribeFile runs a local file through the same pipeline as an upload
func (a *App) TranscribeFile(ctx context.Context, path string) transcription.Result {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		a.Logger.Debug("cannot open input file", zap.String("path", path), zap.Error(err))
		return transcription.Result{
			Filename: name,
			Status:   transcription.StatusError,
			Err:      transcription.NewError(transcription.KindStorage, transcription.CodeStorageFailed, "cannot open file", err),
		}
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return a.Service.Transcribe(ctx, audio.Upload{
		Filename:    name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Size:        size,
		Body:        f,
	})
}
