package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrChecksumMismatch is returned when downloaded bytes do not hash to the expected value.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ProgressFunc wraps the response body so callers can render progress.
// total is -1 when the server did not send a length.
type ProgressFunc func(name string, total int64, body io.Reader) io.Reader

// Options configures Download
type Options struct {
	URL            string
	Destination    string
	ExpectedSHA256 string
	Retries        int
	HTTPClient     *http.Client
	Logger         *zap.Logger
	Progress       ProgressFunc
}

// Download fetches URL into Destination through a ".part" file and only
// renames it into place once the checksum matches. Failed attempts are
// retried with a linear backoff; a checksum mismatch is not retried.
func Download(ctx context.Context, opts Options) error {
	if opts.URL == "" {
		return errors.New("download URL is required")
	}
	if opts.Destination == "" {
		return errors.New("destination path is required")
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Minute}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	expected := strings.ToLower(strings.TrimSpace(opts.ExpectedSHA256))

	if err := os.MkdirAll(filepath.Dir(opts.Destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		if attempt > 1 {
			opts.Logger.Warn("retrying download",
				zap.Int("attempt", attempt),
				zap.Int("max", opts.Retries),
				zap.String("url", opts.URL),
				zap.Error(lastErr))
			select {
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = downloadOnce(ctx, opts, expected)
		if lastErr == nil {
			opts.Logger.Info("download complete", zap.String("path", opts.Destination))
			return nil
		}
		if errors.Is(lastErr, ErrChecksumMismatch) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// VerifyFileChecksum hashes path and compares it with expected. An empty
// expected value always passes.
func VerifyFileChecksum(path, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	if expected == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	if actual := hex.EncodeToString(h.Sum(nil)); actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

func downloadOnce(ctx context.Context, opts Options, expected string) error {
	tempPath := opts.Destination + ".part"
	_ = os.Remove(tempPath)

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	success := false
	defer func() {
		_ = out.Close()
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "transcribed/1")

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if opts.Progress != nil {
		body = opts.Progress(filepath.Base(opts.Destination), resp.ContentLength, body)
	}

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, hash), body); err != nil {
		return fmt.Errorf("download body: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if actual := hex.EncodeToString(hash.Sum(nil)); expected != "" && actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, opts.Destination); err != nil {
		return fmt.Errorf("move temp file into destination: %w", err)
	}
	success = true
	return nil
}

// Ensure resolves ref and downloads the checkpoint when it is missing.
func Ensure(ctx context.Context, ref, dir string, opts Options) (Resolved, error) {
	res, err := Resolve(ref, dir)
	if err != nil {
		return Resolved{}, err
	}
	if !res.NeedsDownload {
		return res, nil
	}
	opts.URL = res.URL
	opts.Destination = res.Path
	opts.ExpectedSHA256 = res.SHA256
	if err := Download(ctx, opts); err != nil {
		return Resolved{}, fmt.Errorf("download model %s: %w", res.Name, err)
	}
	res.NeedsDownload = false
	return res, nil
}
