package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alantheprice/querysynth/pkg/config"
	"github.com/alantheprice/querysynth/pkg/docs"
	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/alantheprice/querysynth/pkg/synth"
	"github.com/alantheprice/querysynth/pkg/utils"
)

var (
	synthExamplesFile string
	synthInitialExpr  string
	synthMaxIter      int
)

// exampleFile is the on-disk layout consumed by --examples-file.
type exampleFile struct {
	PositiveExamples []any `json:"positiveExamples"`
	NegativeExamples []any `json:"negativeExamples"`
}

// synthCmd runs a synthesis loop from the terminal, streaming one JSON line
// per iteration to stdout.
var synthCmd = &cobra.Command{
	Use:   "synth \"task description\"",
	Short: "Run a synthesis loop from the terminal",
	Long: `Run an expression synthesis loop without the web UI. Labeled examples
are read from a JSON file and iteration records are written to stdout as
NDJSON, one line per iteration. Interrupting the run with Ctrl-C stops it
cleanly after the current iteration.

Example:
  querysynth synth -f examples.json "orders with a total greater than 100"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task := strings.TrimSpace(args[0])
		if task == "" {
			return fmt.Errorf("task description cannot be empty")
		}

		var examples exampleFile
		if synthExamplesFile != "" {
			data, err := os.ReadFile(synthExamplesFile)
			if err != nil {
				return fmt.Errorf("failed to read examples file: %w", err)
			}
			if err := json.Unmarshal(data, &examples); err != nil {
				return fmt.Errorf("failed to parse examples file: %w", err)
			}
		}

		cfg, err := config.LoadOrInit()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if synthMaxIter > 0 {
			cfg.MaxIterations = synthMaxIter
		}

		utils.GetLogger().SetJSONMode(cfg.JsonLogs)

		client, err := llm.NewClient(cfg, true)
		if err != nil {
			return fmt.Errorf("failed to create llm client: %w", err)
		}
		selectionClient := client
		if cfg.SelectionModel != "" && cfg.SelectionModel != cfg.Model {
			selectionClient, err = llm.NewSelectionClient(cfg, true)
			if err != nil {
				return fmt.Errorf("failed to create selection client: %w", err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		selector := docs.NewSelector(selectionClient, docs.NewEmbeddedStore())
		generator := synth.NewCandidateGenerator(client, selector)
		reasoner := synth.NewReasoningGenerator(client, selector)
		loop := synth.NewLoop(generator, reasoner, cfg.MaxIterations)

		encoder := json.NewEncoder(os.Stdout)
		return loop.Run(ctx, synth.Request{
			InitialExpression: synthInitialExpr,
			PositiveExamples:  examples.PositiveExamples,
			NegativeExamples:  examples.NegativeExamples,
			TaskDescription:   task,
		}, func(record synth.Iteration) error {
			return encoder.Encode(record)
		})
	},
}

func init() {
	synthCmd.Flags().StringVarP(&synthExamplesFile, "examples-file", "f", "", "JSON file with positiveExamples and negativeExamples arrays")
	synthCmd.Flags().StringVarP(&synthInitialExpr, "initial", "i", "", "Initial expression to refine")
	synthCmd.Flags().IntVarP(&synthMaxIter, "max-iterations", "m", 0, "Maximum loop iterations (defaults to configured value)")
	rootCmd.AddCommand(synthCmd)
}
