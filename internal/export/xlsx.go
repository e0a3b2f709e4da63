package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/treasuryhq/gringotts/internal/run"
)

// WriteXLSX writes the report as a workbook with Summary, Accounts and
// Failures sheets.
func WriteXLSX(w io.Writer, report *run.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, report); err != nil {
		return err
	}
	if err := writeAccountsSheet(f, report); err != nil {
		return err
	}
	if len(report.Failures) > 0 {
		if err := writeFailuresSheet(f, report); err != nil {
			return err
		}
	}

	// excelize creates "Sheet1" by default; drop it once real sheets exist.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report *run.Report) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheet, err)
	}

	rows := [][]any{{"Organization", "Symbol", "Amount", "USD Value"}}
	for _, row := range summaryRows(report.Summary) {
		rows = append(rows, []any{row.Organization, row.Symbol, row.Amount, row.USDValue})
	}
	rows = append(rows, []any{"TOTAL", "", "", report.Summary.TotalUSDValue.StringFixed(2)})

	return writeRows(f, sheet, rows)
}

func writeAccountsSheet(f *excelize.File, report *run.Report) error {
	const sheet = "Accounts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheet, err)
	}

	rows := [][]any{{"Organization", "Account", "Provider", "Identifier", "Symbol", "Amount", "USD Value"}}
	for _, res := range report.Results {
		for _, b := range res.Balances {
			usd := ""
			if b.HasUSDValue() {
				usd = b.USDValue.StringFixed(2)
			}
			rows = append(rows, []any{
				res.Account.Organization, res.Account.Name,
				res.Account.Kind.DisplayName(), res.Account.Identifier,
				b.Symbol, b.Amount.String(), usd,
			})
		}
	}

	return writeRows(f, sheet, rows)
}

func writeFailuresSheet(f *excelize.File, report *run.Report) error {
	const sheet = "Failures"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheet, err)
	}

	rows := [][]any{{"Account", "Provider", "Identifier", "Error"}}
	for _, failure := range report.Failures {
		rows = append(rows, []any{
			failure.Account.Name, failure.Account.Kind.DisplayName(),
			failure.Account.Identifier, failure.Err,
		})
	}

	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
