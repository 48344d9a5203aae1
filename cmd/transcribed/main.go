// @title Speech Transcription API
// @version 1.0.0
// @description Upload an audio file and receive its transcription from a pretrained speech recognition model.
// @BasePath /
package main

import "speech-transcription/cmd/transcribed/cmd"

func main() {
	cmd.Execute()
}
