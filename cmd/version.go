package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// These variables are set at build time using -ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = ""
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("querysynth version %s\n", version)
		if buildDate != "unknown" {
			fmt.Printf("Build date: %s\n", buildDate)
		}
		if gitCommit != "" {
			fmt.Printf("Git commit: %s\n", gitCommit)
		}
		fmt.Printf("Go version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
