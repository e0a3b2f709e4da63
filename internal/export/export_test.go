package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/provider"
	"github.com/treasuryhq/gringotts/internal/run"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleReport() *run.Report {
	summary := domain.NewPortfolioSummary()
	sol := dec("70")
	summary.AddAsset("Acme", "SOL", dec("3.5"), &sol)
	usd := dec("500")
	summary.AddAsset("", "USD", dec("500"), &usd)

	return &run.Report{
		Summary: summary,
		Results: []domain.AccountResult{{
			Account: domain.TrackedAccount{
				Organization: "Acme", Name: "hot",
				Kind: domain.KindSolana, Identifier: "addr-1",
			},
			Balances: []domain.AssetBalance{
				{Symbol: "SOL", Amount: dec("3.5"), USDValue: &sol},
			},
		}},
		Failures: []domain.Failure{{
			Account: domain.TrackedAccount{Name: "broken", Kind: domain.KindNear, Identifier: "x.near"},
			Err:     "RPC timeout",
		}},
		GeneratedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}

	// Header + Acme/SOL + Uncategorized/USD + TOTAL.
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4:\n%v", len(records), records)
	}
	if records[1][0] != "Acme" || records[1][1] != "SOL" || records[1][3] != "70.00" {
		t.Errorf("Acme row = %v", records[1])
	}
	if records[2][0] != domain.Uncategorized {
		t.Errorf("second org = %q, want %q", records[2][0], domain.Uncategorized)
	}
	if records[3][0] != "TOTAL" || records[3][3] != "570.00" {
		t.Errorf("total row = %v", records[3])
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded run.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if !decoded.Summary.TotalUSDValue.Equal(dec("570")) {
		t.Errorf("total = %s, want 570", decoded.Summary.TotalUSDValue)
	}
	if len(decoded.Failures) != 1 {
		t.Errorf("failures = %d, want 1", len(decoded.Failures))
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Summary", "Accounts", "Failures"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	got, err := f.GetCellValue("Summary", "A2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if got != "Acme" {
		t.Errorf("Summary!A2 = %q, want Acme", got)
	}

	got, err = f.GetCellValue("Accounts", "E2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if got != "SOL" {
		t.Errorf("Accounts!E2 = %q, want SOL", got)
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	var buf bytes.Buffer
	txs := []provider.MercuryTransaction{
		{ID: "tx-1", Amount: -42.5, PostedAt: "2026-03-01", Status: "sent", CounterpartyName: "Vendor"},
	}
	if err := WriteTransactionsCSV(&buf, txs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "tx-1") || !strings.Contains(lines[1], "-42.50") {
		t.Errorf("row = %q", lines[1])
	}
}

type stubWriter struct {
	calls int
	err   error
}

func (s *stubWriter) Write(ctx context.Context, report *run.Report) error {
	s.calls++
	return s.err
}

func TestServiceWritesAllDespiteErrors(t *testing.T) {
	failing := &stubWriter{err: errors.New("sheet unavailable")}
	ok := &stubWriter{}
	svc := NewService(failing, ok)

	err := svc.Export(context.Background(), sampleReport())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if failing.calls != 1 || ok.calls != 1 {
		t.Errorf("calls = %d, %d; want both attempted", failing.calls, ok.calls)
	}
}
