package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of cv-screener",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s %s/%s)\n", app, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
