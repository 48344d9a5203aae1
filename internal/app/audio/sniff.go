package audio

import (
	"bytes"
	"io"
	"os"
)

const sniffLen = 12

// Sniff guesses the container format from leading magic bytes.
// It returns FormatUnknown when nothing matches.
func Sniff(head []byte) Format {
	switch {
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("fLaC")):
		return FormatFLAC
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("OggS")):
		return FormatOGG
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWebM
	case len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")):
		return FormatM4A
	case len(head) >= 3 && bytes.Equal(head[0:3], []byte("ID3")):
		return FormatMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// sniffFile reads the first bytes of path and checks them against the declared format.
func sniffFile(path string, declared Format) error {
	f, err := os.Open(path)
	if err != nil {
		return decodeErr(declared, "cannot open audio", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return decodeErr(declared, "file is empty", nil)
		}
		return decodeErr(declared, "cannot read audio", err)
	}

	actual := Sniff(head[:n])
	if actual == declared {
		return nil
	}
	// Some m4a muxers lead with free/wide atoms; ffmpeg gets the final say for those.
	if isFFmpegFormat(declared) && (actual == FormatUnknown || isFFmpegFormat(actual)) {
		return nil
	}
	if actual == FormatUnknown {
		return decodeErr(declared, "content is not recognizable "+string(declared)+" data", nil)
	}
	return decodeErr(declared, "content looks like "+string(actual)+" data", nil)
}
