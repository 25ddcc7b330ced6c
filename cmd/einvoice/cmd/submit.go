package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/export"
	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/store"
)

var (
	submitVendor string
	reportFile   string
	outputFile   string
)

var submitCmd = &cobra.Command{
	Use:   "submit [files...]",
	Short: "Submit invoice files as a batch",
	Long: `Load invoices from JSON or YAML files and issue them one at a time.

Files may hold a list of invoices, an object with an "invoices" list, or
a single invoice. Invoices already marked success or voided in the store
are skipped. Press Ctrl-C to abort: the invoice in flight is cancelled
and left as it was.

Examples:
  einvoice submit invoices.yaml --vendor ecpay
  einvoice submit batch/ --vendor smilepay --mode production
  einvoice submit a.json b.json --vendor ezpay --report report.xlsx -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitVendor, "vendor", "", "Platform to issue with (ezpay, ecpay, opay, smilepay, amego)")
	submitCmd.Flags().StringVar(&reportFile, "report", "", "Write an Excel report of the batch")
	submitCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	_ = submitCmd.MarkFlagRequired("vendor")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	adapter, err := a.adapter(submitVendor)
	if err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no invoice files found")
	}

	var invoices []*model.Invoice
	for _, file := range files {
		loaded, err := export.LoadFile(file, time.Now())
		if err != nil {
			return err
		}
		printVerbose("Loaded %d invoices from %s\n", len(loaded), file)
		invoices = append(invoices, loaded...)
	}

	st, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.PutAll(ctx, st, invoices); err != nil {
		return fmt.Errorf("failed to queue invoices: %w", err)
	}

	orchestrator := batch.New(st,
		batch.WithLogger(a.logger),
		batch.WithEventHandler(printProgress),
	)
	summary, err := orchestrator.Run(ctx, adapter, a.cfg.DefaultMode())
	if err != nil {
		return err
	}

	results, err := st.List(context.Background())
	if err != nil {
		return err
	}

	if reportFile != "" {
		if err := writeReport(reportFile, results, &summary); err != nil {
			return err
		}
		printVerbose("Report written to %s\n", reportFile)
	}

	if err := outputInvoices(results); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Batch %s %s: %d/%d processed, %d succeeded, %d failed, %d skipped\n",
		summary.JobID, summary.State,
		summary.Stats.Processed, summary.Stats.Total,
		summary.Stats.Successful, summary.Stats.Failed, summary.Stats.Skipped)

	if summary.State == batch.StateAborted {
		return fmt.Errorf("batch aborted")
	}
	return nil
}

// printProgress reports batch events on stderr
func printProgress(e batch.Event) {
	switch e.Type {
	case batch.EventItemSucceeded:
		fmt.Fprintf(os.Stderr, "[%3d%%] %s issued %s\n", e.Percentage, e.OrderNo, e.Result.InvoiceNumber)
	case batch.EventItemFailed:
		fmt.Fprintf(os.Stderr, "[%3d%%] %s failed: %s\n", e.Percentage, e.OrderNo, e.Result.Error)
	case batch.EventItemSkipped:
		fmt.Fprintf(os.Stderr, "[%3d%%] %s skipped\n", e.Percentage, e.OrderNo)
	case batch.EventBatchAborted:
		fmt.Fprintln(os.Stderr, "Batch aborted")
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("file not found: %s", arg)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isSupportedFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func writeReport(path string, invoices []*model.Invoice, summary *batch.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()
	return export.WriteXLSX(f, invoices, summary)
}
