package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/relay"
	"github.com/rezonia/einvoice-gateway/internal/server"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay and batch HTTP server",
	Long: `Start the HTTP server.

The server provides:
  - POST /kick                              - Forward a sealed request to a platform
  - GET  /api/v1/vendors                    - List platforms and credential fields
  - GET  /api/v1/invoices                   - List queued invoices
  - POST /api/v1/invoices                   - Queue invoices
  - POST /api/v1/invoices/:vendor/void      - Void an invoice
  - POST /api/v1/batches                    - Start a batch
  - GET  /api/v1/batches/:id                - Batch progress
  - POST /api/v1/batches/:id/pause|resume|abort
  - GET  /health                            - Health check

/kick always calls the platforms directly, so a deployed server can act as
the relay for other instances.

Examples:
  einvoice serve
  einvoice serve --address :9000 --store queue.db
  einvoice serve --config einvoice.yaml --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (default from config)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	st, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	addr := serverAddr
	if addr == "" {
		addr = a.cfg.Address()
	}

	config := &server.Config{
		Address:        addr,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		ForwardTimeout: a.cfg.Relay.ForwardTimeout,
		DefaultMode:    a.cfg.DefaultMode(),
		Debug:          serverDebug || a.cfg.Server.Debug,
	}

	srv := server.NewServer(config,
		server.WithForwarder(relay.NewForwarder(relay.WithForwardLogger(a.logger))),
		server.WithRegistry(a.registry),
		server.WithStore(st, batch.New(st, batch.WithLogger(a.logger))),
		server.WithLogger(a.logger),
	)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting server on %s (%s mode)\n", config.Address, config.DefaultMode)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Server stopped")
	return nil
}
