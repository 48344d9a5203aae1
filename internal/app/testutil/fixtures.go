package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// Tone returns n 16-bit samples of a sine at freq Hz with the given peak amplitude (0..1).
func Tone(n, rate int, freq, amplitude float64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(math.Round(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))))
	}
	return out
}

// Silence returns n zero samples
func Silence(n int) []int {
	return make([]int, n)
}

// Interleave merges per-channel sample slices of equal length into frames.
func Interleave(channels ...[]int) []int {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]int, 0, n*len(channels))
	for i := 0; i < n; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

// WAVBytes encodes interleaved integer samples as a PCM WAV file.
// 8-bit samples must already be unsigned (0..255).
func WAVBytes(t testing.TB, samples []int, rate, channels, bitDepth int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// Fixture reads a checked-in file from testutil/testdata.
// tone-44k-mono.ogg is one second of 44.1 kHz mono Vorbis (from the
// jfreymuth/oggvorbis test suite, MIT).
func Fixture(t testing.TB, name string) []byte {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "cannot locate testutil sources")
	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "testdata", name))
	require.NoError(t, err)
	return data
}

// WriteFile stores data under dir and returns the full path
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// SilentMP3 builds frames of MPEG-1 Layer III, 128 kbit/s, 44.1 kHz mono
// whose side info and main data are all zero, which decodes to silence.
func SilentMP3(frames int) []byte {
	const frameSize = 144 * 128000 / 44100 // 417, no padding
	header := []byte{0xFF, 0xFB, 0x90, 0xC0}
	out := make([]byte, 0, frames*frameSize)
	for i := 0; i < frames; i++ {
		out = append(out, header...)
		out = append(out, make([]byte, frameSize-len(header))...)
	}
	return out
}

var flacRateCodes = map[int]byte{
	8000:  0x4,
	16000: 0x5,
	22050: 0x6,
	24000: 0x7,
	32000: 0x8,
	44100: 0x9,
	48000: 0xA,
	96000: 0xB,
}

// FLACBytes encodes interleaved 16-bit samples as a FLAC stream made of
// VERBATIM subframes with independent channels. Only the standard sample
// rates with a frame header code are supported.
func FLACBytes(samples []int16, rate, channels, blockSize int) []byte {
	rateCode, ok := flacRateCodes[rate]
	if !ok {
		panic(fmt.Sprintf("testutil: no FLAC header code for %d Hz", rate))
	}
	if channels < 1 || channels > 8 || blockSize < 16 || blockSize > 65535 {
		panic("testutil: unsupported FLAC layout")
	}
	totalFrames := len(samples) / channels

	var out bytes.Buffer
	out.WriteString("fLaC")

	// STREAMINFO, flagged as the last metadata block.
	out.Write([]byte{0x80, 0x00, 0x00, 34})
	_ = binary.Write(&out, binary.BigEndian, uint16(blockSize))
	_ = binary.Write(&out, binary.BigEndian, uint16(blockSize))
	out.Write([]byte{0, 0, 0, 0, 0, 0}) // frame sizes unknown
	packed := uint64(rate)<<44 | uint64(channels-1)<<41 | uint64(16-1)<<36 | uint64(totalFrames)
	_ = binary.Write(&out, binary.BigEndian, packed)
	out.Write(make([]byte, 16)) // MD5 unknown

	for frameNum, start := 0, 0; start < totalFrames; frameNum, start = frameNum+1, start+blockSize {
		n := min(blockSize, totalFrames-start)
		if frameNum > 127 {
			panic("testutil: too many FLAC frames for single-byte frame numbers")
		}

		var fr bytes.Buffer
		fr.Write([]byte{0xFF, 0xF8})
		fr.WriteByte(0x7<<4 | rateCode)             // 16-bit block size at end of header
		fr.WriteByte(byte(channels-1)<<4 | 0x4<<1) // independent channels, 16 bits per sample
		fr.WriteByte(byte(frameNum))
		_ = binary.Write(&fr, binary.BigEndian, uint16(n-1))
		fr.WriteByte(crc8(fr.Bytes()))

		for c := 0; c < channels; c++ {
			fr.WriteByte(0x02) // VERBATIM
			for i := 0; i < n; i++ {
				_ = binary.Write(&fr, binary.BigEndian, samples[(start+i)*channels+c])
			}
		}
		_ = binary.Write(&fr, binary.BigEndian, crc16(fr.Bytes()))
		out.Write(fr.Bytes())
	}
	return out.Bytes()
}

// Int16s narrows 16-bit sample values
func Int16s(samples []int) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = int16(v)
	}
	return out
}

func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// HasFFmpeg reports whether an ffmpeg binary is on PATH
func HasFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

var ffmpegCodecArgs = map[string][]string{
	"wav":  {"-c:a", "pcm_s16le"},
	"mp3":  {"-c:a", "libmp3lame"},
	"flac": {"-c:a", "flac"},
	"m4a":  {"-c:a", "aac"},
	"ogg":  {"-c:a", "libvorbis"},
	"webm": {"-c:a", "libopus"},
}

// FFmpegSilence renders seconds of digital silence in the given container
// using ffmpeg. The test is skipped when ffmpeg or the encoder is missing.
func FFmpegSilence(t testing.TB, format string, rate int, seconds float64) []byte {
	t.Helper()
	if !HasFFmpeg() {
		t.Skip("ffmpeg not available, skipping")
	}
	codec, ok := ffmpegCodecArgs[format]
	if !ok {
		t.Fatalf("no ffmpeg codec for %s", format)
	}

	out := filepath.Join(t.TempDir(), "silence."+format)
	args := []string{"-nostdin", "-v", "error", "-y",
		"-f", "lavfi", "-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", rate),
		"-t", fmt.Sprintf("%.3f", seconds)}
	args = append(args, codec...)
	args = append(args, out)

	var stderr bytes.Buffer
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg cannot encode %s here: %v, stderr: %s", format, err, stderr.String())
	}

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return data
}
