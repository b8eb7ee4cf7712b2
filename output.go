package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tournevent/codtracker/internal/dashboard"
	"github.com/tournevent/codtracker/pkg/tracking"
)

func writeRecords(out io.Writer, records []tracking.Record, format string) error {
	switch format {
	case "json":
		return writeJSON(out, records)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No COD orders with tracking found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tDATE\tCUSTOMER\tTRACKING\tSTATUS\tRAW STATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.OrderNumber,
			r.OrderDate,
			r.Customer,
			r.Tracking,
			r.Status,
			r.RawStatus,
		)
	}
	return w.Flush()
}

func writeReport(out io.Writer, report dashboard.ConnectionsReport, format string) error {
	switch format {
	case "json":
		return writeJSON(out, report)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tOK\tMESSAGE")
	fmt.Fprintf(w, "shopify\t%t\t%s\n", report.Shopify.Success, report.Shopify.Message)
	fmt.Fprintf(w, "correos\t%t\t%s\n", report.Correos.Success, report.Correos.Message)
	return w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
