package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-gateway/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the invoice store",
	Long: `Export every invoice in the store.

A .xlsx output writes a report with issue results. Any other output writes
JSON without issue results, ready to be submitted again.

Examples:
  einvoice export --store queue.db
  einvoice export --store queue.db -o report.xlsx
  einvoice export --store queue.db -o retry.json`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: invoices-<date>.json)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Store.Path == "" {
		return fmt.Errorf("export needs a persistent store: set --store or store.path")
	}
	st, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	invoices, err := st.List(context.Background())
	if err != nil {
		return err
	}

	if outputFile == "" {
		outputFile = export.FileName(time.Now())
	}
	if strings.EqualFold(filepath.Ext(outputFile), ".xlsx") {
		err = writeReport(outputFile, invoices, nil)
	} else {
		w, done, openErr := output()
		if openErr != nil {
			return openErr
		}
		err = export.WriteJSON(w, invoices)
		done()
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d invoices to %s\n", len(invoices), outputFile)
	return nil
}
