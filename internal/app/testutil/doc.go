// Package testutil provides fakes and fixtures shared by package tests.
//
// FakeModel and FakeLoader stand in for an inference backend: responses are
// deterministic, silent input always transcribes to "", and latency, errors
// and panics can be injected. MockTranscriptionService and MockHealthService
// are testify mocks for the HTTP handlers.
//
// Fixtures synthesize audio in memory: WAVBytes encodes PCM through
// go-audio/wav, FLACBytes and SilentMP3 build minimal valid streams, and
// FFmpegSilence renders other containers when an ffmpeg binary is present.
//
//	model := testutil.NewFakeModel().SetResponse(16000, "hello world")
//	engine := inference.NewEngine(testutil.NewFakeLoader(model), inference.Options{}, nil)
//	wav := testutil.WAVBytes(t, testutil.Tone(16000, 16000, 440, 0.5), 16000, 1, 16)
package testutil
