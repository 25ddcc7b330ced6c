package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rezonia/einvoice-gateway/internal/batch"
	"github.com/rezonia/einvoice-gateway/internal/model"
)

const (
	invoiceSheet = "Invoices"
	summarySheet = "Summary"
)

var invoiceHeader = []interface{}{
	"Order No", "Category", "Buyer", "Buyer UBN", "Tax Type",
	"Sales Amount", "Tax", "Total", "Status", "Invoice Number",
	"Random Number", "Created", "Error",
}

// WriteXLSX writes a batch report workbook: one row per invoice, plus a
// summary sheet when a job summary is given
func WriteXLSX(w io.Writer, invoices []*model.Invoice, summary *batch.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := f.SetSheetRow(invoiceSheet, "A1", &invoiceHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, inv := range invoices {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := invoiceRow(inv)
		if err := f.SetSheetRow(invoiceSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", inv.MerchantOrderNo, err)
		}
	}

	if summary != nil {
		if err := writeSummary(f, summary); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func invoiceRow(inv *model.Invoice) []interface{} {
	buyer := inv.BuyerName
	if inv.IsDonation() {
		buyer = "donated " + inv.LoveCode
	}
	return []interface{}{
		inv.MerchantOrderNo,
		string(inv.Category),
		buyer,
		inv.BuyerUBN,
		string(inv.TaxType),
		inv.SalesAmount.InexactFloat64(),
		inv.TaxAmt.InexactFloat64(),
		inv.TotalAmt.InexactFloat64(),
		string(inv.Status),
		inv.InvoiceNumber,
		inv.RandomNumber,
		inv.CreateTime,
		inv.Error,
	}
}

func writeSummary(f *excelize.File, s *batch.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	rows := [][]interface{}{
		{"Job", s.JobID},
		{"Vendor", string(s.Vendor)},
		{"Mode", string(s.Mode)},
		{"State", string(s.State)},
		{"Total", s.Stats.Total},
		{"Processed", s.Stats.Processed},
		{"Successful", s.Stats.Successful},
		{"Failed", s.Stats.Failed},
		{"Skipped", s.Stats.Skipped},
		{"Progress %", s.Stats.Percentage()},
	}
	if !s.StartedAt.IsZero() {
		rows = append(rows, []interface{}{"Started", s.StartedAt.Format("2006-01-02 15:04:05")})
	}
	if !s.FinishedAt.IsZero() {
		rows = append(rows, []interface{}{"Finished", s.FinishedAt.Format("2006-01-02 15:04:05")})
	}
	for i := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

// WriteJSON writes invoices as an indented JSON array that can be loaded
// again as a fresh queue. Submission results are dropped.
func WriteJSON(w io.Writer, invoices []*model.Invoice) error {
	out := make([]*model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		c := inv.Clone()
		c.Status = ""
		c.InvoiceNumber = ""
		c.RandomNumber = ""
		c.CreateTime = ""
		c.Error = ""
		out = append(out, c)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
