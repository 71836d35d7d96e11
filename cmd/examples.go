package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alantheprice/querysynth/pkg/config"
	"github.com/alantheprice/querysynth/pkg/examplegen"
	"github.com/alantheprice/querysynth/pkg/llm"
)

var (
	examplesSampleOutput string
	examplesDescription  string
)

// examplesCmd generates labeled example documents for an expression.
var examplesCmd = &cobra.Command{
	Use:   "examples \"expression\"",
	Short: "Generate labeled example documents for an expression",
	Long: `Generate positive and negative example documents for a JSONata
expression. Each generated document is checked against the expression and
dropped if the expression produces no result for it. The validated sets are
written to stdout as JSON, ready for use with synth --examples-file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrInit()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		client, err := llm.NewClient(cfg, true)
		if err != nil {
			return fmt.Errorf("failed to create llm client: %w", err)
		}

		generator := examplegen.NewGenerator(client)
		result, err := generator.Generate(context.Background(), args[0], examplesSampleOutput, examplesDescription)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	},
}

func init() {
	examplesCmd.Flags().StringVarP(&examplesSampleOutput, "sample-output", "s", "", "Example of the expression's expected output")
	examplesCmd.Flags().StringVarP(&examplesDescription, "description", "d", "", "Description of what the expression matches")
	rootCmd.AddCommand(examplesCmd)
}
