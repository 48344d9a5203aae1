package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"speech-transcription/internal/app/inference"
)

// version is overridden at build time with -ldflags "-X ...version.version=v1.2.3"
var version = "v0.1.0"

// Cmd represents the version command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of transcribed",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, version)
		if show, _ := cmd.Flags().GetBool("backends"); show {
			fmt.Fprintf(out, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			for _, b := range inference.Backends() {
				fmt.Fprintf(out, "backend: %s\n", b)
			}
		}
		return nil
	},
}

func init() {
	Cmd.Flags().Bool("backends", false, "also list the compiled-in inference backends")
}
