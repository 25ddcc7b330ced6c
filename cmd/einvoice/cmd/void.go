package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-gateway/internal/model"
	"github.com/rezonia/einvoice-gateway/internal/store"
	"github.com/rezonia/einvoice-gateway/internal/vendor"
)

var (
	voidVendor string
	voidReason string
	voidDate   string
	voidB2B    bool
	voidOrder  string
)

var voidCmd = &cobra.Command{
	Use:   "void <invoice-number>",
	Short: "Void an issued invoice",
	Long: `Invalidate an issued invoice with the platform that issued it.

With --order the matching invoice in the store is marked voided, so later
batches skip it.

Examples:
  einvoice void AB12345678 --vendor ecpay --reason "wrong amount"
  einvoice void AB12345678 --vendor ezpay --reason "duplicate" --date 2026-03-09
  einvoice void AB12345678 --vendor amego --reason "returned" --store queue.db --order INV001`,
	Args: cobra.ExactArgs(1),
	RunE: runVoid,
}

func init() {
	rootCmd.AddCommand(voidCmd)

	voidCmd.Flags().StringVar(&voidVendor, "vendor", "", "Platform that issued the invoice")
	voidCmd.Flags().StringVar(&voidReason, "reason", "", "Void reason")
	voidCmd.Flags().StringVar(&voidDate, "date", "", "Issue date of the invoice (YYYY-MM-DD, default today)")
	voidCmd.Flags().BoolVar(&voidB2B, "b2b", false, "The invoice is a B2B invoice")
	voidCmd.Flags().StringVar(&voidOrder, "order", "", "Merchant order number to mark voided in the store")
	_ = voidCmd.MarkFlagRequired("vendor")
	_ = voidCmd.MarkFlagRequired("reason")
}

func runVoid(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	adapter, err := a.adapter(voidVendor)
	if err != nil {
		return err
	}

	req := vendor.VoidRequest{
		InvoiceNumber: args[0],
		Reason:        voidReason,
		Category:      model.CategoryB2C,
	}
	if voidB2B {
		req.Category = model.CategoryB2B
	}
	if voidDate != "" {
		d, err := time.ParseInLocation("2006-01-02", voidDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		req.InvoiceDate = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := adapter.Void(ctx, req, a.cfg.DefaultMode())
	if res.Success && voidOrder != "" {
		if err := markVoided(a, voidOrder); err != nil {
			return err
		}
	}

	if err := outputResult(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("void failed")
	}
	return nil
}

func markVoided(a *app, orderNo string) error {
	st, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	err = st.UpdateStatus(context.Background(), orderNo, store.StatusUpdate{Status: model.StatusVoided})
	if err != nil {
		return fmt.Errorf("invoice voided but store update failed: %w", err)
	}
	return nil
}
