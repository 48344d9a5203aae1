package inference

import (
	"regexp"
	"strings"
)

// whisper emits bracketed non-speech markers such as [BLANK_AUDIO] or [MUSIC].
var nonSpeechMarker = regexp.MustCompile(`\[[A-Za-z_ ]+\]|\((?i:silence|music|inaudible)\)`)

// NormalizeText lowercases and trims a raw model transcript, dropping
// non-speech markers and collapsing runs of whitespace.
func NormalizeText(raw string) string {
	cleaned := nonSpeechMarker.ReplaceAllString(raw, " ")
	return strings.ToLower(strings.Join(strings.Fields(cleaned), " "))
}
