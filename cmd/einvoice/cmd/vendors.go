package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List supported platforms and their credential status",
	Long: `List every supported platform, the credential fields it needs, and
whether usable credentials are configured for the current mode.

Placeholder values such as YOUR_HASH_KEY count as not configured.`,
	RunE: runVendors,
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
}

// VendorStatus is one row of the vendors listing
type VendorStatus struct {
	Vendor         string   `json:"vendor"`
	Mode           string   `json:"mode"`
	RequiredFields []string `json:"required_fields"`
	Configured     bool     `json:"configured"`
	Problem        string   `json:"problem,omitempty"`
}

func runVendors(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	mode := a.cfg.DefaultMode()
	creds := a.cfg.Credentials()

	var rows []VendorStatus
	for _, v := range a.registry.Vendors() {
		adapter, err := a.registry.GetAdapter(v)
		if err != nil {
			return err
		}
		fields := adapter.Protocol().RequiredFields()
		row := VendorStatus{
			Vendor:         string(v),
			Mode:           string(mode),
			RequiredFields: fields,
		}
		cred := creds[v].For(mode)
		if cred == nil {
			row.Problem = "no credentials"
		} else if err := cred.Require(v, fields...); err != nil {
			row.Problem = err.Error()
		} else {
			row.Configured = true
		}
		rows = append(rows, row)
	}

	if outputFormat == "json" {
		return outputJSON(os.Stdout, rows)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VENDOR\tMODE\tFIELDS\tCONFIGURED")
	fmt.Fprintln(tw, "------\t----\t------\t----------")
	for _, r := range rows {
		status := "yes"
		if !r.Configured {
			status = "no (" + r.Problem + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Vendor, r.Mode, strings.Join(r.RequiredFields, ","), status)
	}
	return tw.Flush()
}
