package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rezonia/einvoice-gateway/internal/model"
)

// output opens the output file, or stdout
func output() (io.Writer, func(), error) {
	if outputFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func outputInvoices(invoices []*model.Invoice) error {
	w, done, err := output()
	if err != nil {
		return err
	}
	defer done()

	switch outputFormat {
	case "json":
		return outputJSON(w, invoices)
	case "table":
		return outputTable(w, invoices)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputTable(w io.Writer, invoices []*model.Invoice) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCATEGORY\tBUYER\tTOTAL\tSTATUS\tINVOICE\tRANDOM")
	fmt.Fprintln(tw, "-----\t--------\t-----\t-----\t------\t-------\t------")

	for _, inv := range invoices {
		if inv.Status == model.StatusFailed {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\tERROR: %s\t\t\n",
				inv.MerchantOrderNo, inv.Category, inv.BuyerName, inv.TotalAmt.String(), inv.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.MerchantOrderNo,
			inv.Category,
			inv.BuyerName,
			inv.TotalAmt.String(),
			inv.Status,
			inv.InvoiceNumber,
			inv.RandomNumber,
		)
	}

	return tw.Flush()
}

func outputResult(res model.Result) error {
	if outputFormat == "json" {
		return outputJSON(os.Stdout, res)
	}
	if res.Success {
		fmt.Printf("Success: %s\n", res.InvoiceNumber)
		return nil
	}
	fmt.Printf("Failed (%s): %s\n", res.Kind, res.Error)
	return nil
}
