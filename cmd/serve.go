package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alantheprice/querysynth/pkg/config"
	"github.com/alantheprice/querysynth/pkg/events"
	"github.com/alantheprice/querysynth/pkg/llm"
	"github.com/alantheprice/querysynth/pkg/utils"
	"github.com/alantheprice/querysynth/pkg/webui"
)

var servePort int

// serveCmd starts the web UI and API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and API server",
	Long: `Start the web server hosting the synthesis UI, the NDJSON streaming
API, and the live event WebSocket. The server runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrInit()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if servePort != 0 {
			cfg.WebPort = servePort
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

		if !webui.CheckPortAvailable(cfg.WebPort) {
			available := webui.FindAvailablePort(cfg.WebPort)
			fmt.Printf("Port %d is in use, using %d instead\n", cfg.WebPort, available)
			cfg.WebPort = available
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := webui.NewWebServer(client, events.NewEventBus(), cfg)
		server.SetSelectionClient(selectionClient)
		if err := server.Start(ctx); err != nil {
			return err
		}

		utils.GetLogger().Logf("Server listening on port %d", server.GetPort())
		fmt.Printf("querysynth listening at http://localhost:%d\n", server.GetPort())

		<-ctx.Done()
		fmt.Println("\nShutting down")
		return server.Shutdown()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (defaults to configured port)")
	rootCmd.AddCommand(serveCmd)
}
