package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/treasuryhq/gringotts/internal/run"
)

// WriteCSV writes the summary as CSV rows, one per (organization, asset),
// followed by per-organization and grand totals.
func WriteCSV(w io.Writer, report *run.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"organization", "symbol", "amount", "usd_value"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range summaryRows(report.Summary) {
		if err := cw.Write([]string{row.Organization, row.Symbol, row.Amount, row.USDValue}); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	if err := cw.Write([]string{"TOTAL", "", "", report.Summary.TotalUSDValue.StringFixed(2)}); err != nil {
		return fmt.Errorf("writing CSV total: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, report *run.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
