package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNamedModelNeedsDownload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res, err := Resolve("base", dir)
	require.NoError(t, err)
	assert.Equal(t, "base", res.Name)
	assert.Equal(t, filepath.Join(dir, "ggml-base.bin"), res.Path)
	assert.True(t, res.NeedsDownload)
	assert.False(t, res.IsCustomPath)
}

func TestResolveExistingNamedModel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ggml-tiny.bin")
	require.NoError(t, os.WriteFile(path, []byte("ok"), 0o644))

	res, err := Resolve("tiny", dir)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.False(t, res.NeedsDownload)
}

func TestResolveCustomPath(t *testing.T) {
	t.Parallel()

	custom := filepath.Join(t.TempDir(), "my-model.bin")
	require.NoError(t, os.WriteFile(custom, []byte("x"), 0o644))

	res, err := Resolve(custom, "")
	require.NoError(t, err)
	assert.True(t, res.IsCustomPath)
	assert.Equal(t, "my-model", res.Name)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.bin"), "")
	require.Error(t, err)
}

func TestResolveRejectsUnknownAndEmpty(t *testing.T) {
	t.Parallel()

	_, err := Resolve("super-huge", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known models")

	_, err = Resolve("  ", t.TempDir())
	require.Error(t, err)

	_, err = Resolve("base", "")
	require.Error(t, err)
}

func TestRegistryModelsHavePinnedChecksums(t *testing.T) {
	t.Parallel()

	for _, m := range All() {
		assert.Len(t, m.SHA256, 64, m.Name)
		assert.Contains(t, m.URL, m.FileName, m.Name)
	}
	assert.Equal(t, []string{"base", "large-v3", "medium", "small", "tiny"}, Names())
}

func TestVerifyFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "payload.bin")
	payload := []byte("ggml")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	sum := sha256.Sum256(payload)
	require.NoError(t, VerifyFileChecksum(path, hex.EncodeToString(sum[:])))
	require.NoError(t, VerifyFileChecksum(path, ""))
	assert.ErrorIs(t, VerifyFileChecksum(path, "deadbeef"), ErrChecksumMismatch)
}

func TestDownloadWritesVerifiedFile(t *testing.T) {
	t.Parallel()

	payload := []byte("fake ggml weights")
	sum := sha256.Sum256(payload)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	var proxied atomic.Bool
	dest := filepath.Join(t.TempDir(), "nested", "ggml-test.bin")
	err := Download(context.Background(), Options{
		URL:            server.URL,
		Destination:    dest,
		ExpectedSHA256: hex.EncodeToString(sum[:]),
		Retries:        1,
		Progress: func(name string, total int64, body io.Reader) io.Reader {
			proxied.Store(true)
			assert.Equal(t, "ggml-test.bin", name)
			assert.Equal(t, int64(len(payload)), total)
			return body
		},
	})
	require.NoError(t, err)
	assert.True(t, proxied.Load())

	onDisk, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)
	assert.NoFileExists(t, dest+".part")
}

func TestDownloadChecksumMismatchLeavesNothing(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("tampered"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "ggml-test.bin")
	err := Download(context.Background(), Options{
		URL:            server.URL,
		Destination:    dest,
		ExpectedSHA256: "0000000000000000000000000000000000000000000000000000000000000000",
		Retries:        3,
	})
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Equal(t, int32(1), hits.Load(), "checksum mismatch is not retried")
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".part")
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "ggml-test.bin")
	require.NoError(t, Download(context.Background(), Options{URL: server.URL, Destination: dest, Retries: 2}))
	assert.Equal(t, int32(2), hits.Load())
}

func TestDownloadRequiresURLAndDestination(t *testing.T) {
	t.Parallel()

	require.Error(t, Download(context.Background(), Options{Destination: "x"}))
	require.Error(t, Download(context.Background(), Options{URL: "http://example.invalid"}))
}

func TestEnsureSkipsPresentModel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ggml-small.bin")
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o644))

	res, err := Ensure(context.Background(), "small", dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.False(t, res.NeedsDownload)
}
