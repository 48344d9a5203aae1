package audio

import (
	"mime"
	"path/filepath"
	"strings"
)

// Format identifies an audio container/codec family accepted by the service.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatM4A     Format = "m4a"
	FormatOGG     Format = "ogg"
	FormatWebM    Format = "webm"
)

var extensionFormats = map[string]Format{
	".wav":  FormatWAV,
	".mp3":  FormatMP3,
	".flac": FormatFLAC,
	".m4a":  FormatM4A,
	".ogg":  FormatOGG,
	".webm": FormatWebM,
}

var contentTypeFormats = map[string]Format{
	"audio/wav":       FormatWAV,
	"audio/x-wav":     FormatWAV,
	"audio/wave":      FormatWAV,
	"audio/vnd.wave":  FormatWAV,
	"audio/mpeg":      FormatMP3,
	"audio/mp3":       FormatMP3,
	"audio/flac":      FormatFLAC,
	"audio/x-flac":    FormatFLAC,
	"audio/mp4":       FormatM4A,
	"audio/m4a":       FormatM4A,
	"audio/x-m4a":     FormatM4A,
	"audio/ogg":       FormatOGG,
	"audio/vorbis":    FormatOGG,
	"application/ogg": FormatOGG,
	"audio/webm":      FormatWebM,
}

// FormatFromFilename maps a filename extension onto a Format.
// The second value reports whether the filename carried any extension at all.
func FormatFromFilename(name string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == "." {
		return FormatUnknown, false
	}
	return extensionFormats[ext], true
}

// FormatFromContentType maps a MIME type (parameters allowed) onto a Format.
func FormatFromContentType(contentType string) Format {
	if contentType == "" {
		return FormatUnknown
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return contentTypeFormats[mediaType]
}

// ParseFormats converts configured format names, dropping unknown ones.
func ParseFormats(names []string) []Format {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(n), ".")))
		switch f {
		case FormatWAV, FormatMP3, FormatFLAC, FormatM4A, FormatOGG, FormatWebM:
			out = append(out, f)
		}
	}
	return out
}

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
