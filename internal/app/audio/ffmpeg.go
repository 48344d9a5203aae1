package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// isFFmpegFormat reports formats that have no pure-Go decoder here.
func isFFmpegFormat(f Format) bool {
	return f == FormatM4A || f == FormatWebM
}

// NeedsFFmpeg reports whether any of formats is decoded through ffmpeg
func NeedsFFmpeg(formats []Format) bool {
	for _, f := range formats {
		if isFFmpegFormat(f) {
			return true
		}
	}
	return false
}

// LookupFFmpeg resolves the ffmpeg binary on PATH
func LookupFFmpeg(path string) (string, error) {
	if path == "" {
		path = "ffmpeg"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found at %q: %w", path, err)
	}
	return resolved, nil
}

// decodeFFmpeg asks ffmpeg for mono s16le at the target rate on stdout,
// so no resampling is needed afterwards.
func (d *Decoder) decodeFFmpeg(ctx context.Context, path string, format Format) (*pcm, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-nostdin", "-hide_banner", "-v", "error",
		"-i", path,
		"-vn", "-f", "s16le", "-acodec", "pcm_s16le",
		"-ac", "1", "-ar", strconv.Itoa(d.targetRate),
		"pipe:1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, decodeErr(format, "ffmpeg is not available on this server", err)
		}
		return nil, decodeErr(format, "ffmpeg could not decode the file",
			fmt.Errorf("%v, stderr: %s", err, strings.TrimSpace(stderr.String())))
	}

	return &pcm{
		samples:  pcm16ToFloat(stdout.Bytes()),
		rate:     d.targetRate,
		channels: 1,
	}, nil
}
