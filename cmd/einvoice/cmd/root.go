package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-gateway/internal/config"
	"github.com/rezonia/einvoice-gateway/internal/logging"
	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/relay"
	"github.com/rezonia/einvoice-gateway/internal/store"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configPath   string
	modeFlag     string
	storePath    string
)

var rootCmd = &cobra.Command{
	Use:   "einvoice",
	Short: "Issue Taiwan e-invoices through ezPay, ECPay, O'Pay, SmilePay, and Amego",
	Long: `einvoice submits invoices to Taiwan e-invoice platforms in batches.

Supports:
  - Platforms: ezPay, ECPay, O'Pay, SmilePay, Amego
  - B2C invoices with mobile barcode, citizen certificate, or donation
  - B2B invoices with buyer UBN
  - Voiding issued invoices

Credentials are read from the config file or from the environment, e.g.
EINVOICE_VENDORS_ECPAY_TEST_HASH_KEY.

Examples:
  # Submit a file of invoices to ECPay's staging environment
  einvoice submit invoices.yaml --vendor ecpay

  # Submit and keep results in SQLite with an Excel report
  einvoice submit invoices.json --vendor ezpay --store queue.db --report report.xlsx

  # Void an invoice
  einvoice void AB12345678 --vendor amego --reason "wrong buyer"

  # Run the relay and batch API
  einvoice serve --config einvoice.yaml`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./einvoice.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Vendor environment: test or production (default from config)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite invoice store (default from config, in memory if unset)")
}

// app is the wiring shared by the commands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	gateway  relay.Gateway
	registry *vendor.Registry
}

func newApp() (*app, error) {
	path := configPath
	if path == "" && config.Exists("einvoice.yaml") {
		path = "einvoice.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if modeFlag != "" {
		cfg.Mode = modeFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}

	logCfg := cfg.LoggingConfig()
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var gateway relay.Gateway
	if cfg.Relay.URL != "" {
		gateway = relay.NewClient(cfg.Relay.URL,
			relay.WithTimeout(cfg.Relay.Timeout),
			relay.WithLogger(logger),
		)
		printVerbose("Using relay %s\n", cfg.Relay.URL)
	} else {
		gateway = relay.NewForwarder(
			relay.WithForwardHTTPClient(&http.Client{Timeout: cfg.Relay.ForwardTimeout}),
			relay.WithForwardLogger(logger),
		)
		printVerbose("Calling vendors directly\n")
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		gateway:  gateway,
		registry: vendor.NewRegistry(gateway, cfg.Credentials(),
			vendor.WithLogger(logger),
			vendor.WithCallTimeout(cfg.Relay.Timeout),
		),
	}, nil
}

// openStore opens the configured SQLite store, or a memory store
func (a *app) openStore() (store.Store, func(), error) {
	if a.cfg.Store.Path == "" {
		return store.NewMemory(), func() {}, nil
	}
	st, err := store.OpenSQLite(a.cfg.Store.Path, a.logger)
	if err != nil {
		return nil, nil, err
	}
	printVerbose("Using store %s\n", a.cfg.Store.Path)
	return st, func() { _ = st.Close() }, nil
}

func (a *app) adapter(name string) (*vendor.Adapter, error) {
	v, ok := model.ParseVendor(name)
	if !ok {
		return nil, fmt.Errorf("unknown vendor %q (supported: %v)", name, model.Vendors())
	}
	return a.registry.GetAdapter(v)
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
