package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uplift-stats/uplift/internal/server"
	"github.com/uplift-stats/uplift/internal/store"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the uplift HTTP server.

The server provides:
  - JSON API for experiments and observation ingest
  - Dashboard for viewing results
  - Health check endpoint

Example:
  uplift serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if port == 0 {
		port = cfg.Port
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	srv := server.New(s, port)
	return srv.Start()
}
