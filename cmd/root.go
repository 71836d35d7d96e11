package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "querysynth",
	Short: "Iterative JSONata expression synthesis",
	Long: `Querysynth builds JSONata boolean expressions from a natural-language
description and labeled example documents. An LLM proposes candidate
expressions, each candidate is evaluated deterministically against the
examples, and structured feedback drives the next attempt until every
example passes.

Available commands:
  serve    - Start the web UI and API server
  synth    - Run a synthesis loop from the terminal
  examples - Generate labeled example documents for an expression
  version  - Print version information`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
