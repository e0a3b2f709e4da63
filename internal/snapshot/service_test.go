package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/run"
)

type fakeRunner struct {
	report *run.Report
	err    error
	calls  int
}

func (f *fakeRunner) Execute(ctx context.Context, accounts []domain.TrackedAccount, opts run.Options) (*run.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeSource struct {
	accounts []domain.TrackedAccount
	err      error
}

func (f *fakeSource) Accounts(ctx context.Context) ([]domain.TrackedAccount, error) {
	return f.accounts, f.err
}

type fakeRepo struct {
	saved     map[string]json.RawMessage
	savedDate time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{saved: make(map[string]json.RawMessage)}
}

func (f *fakeRepo) Save(ctx context.Context, scope string, date time.Time, data json.RawMessage) error {
	f.saved[scope] = data
	f.savedDate = date
	return nil
}

func (f *fakeRepo) GetLatest(ctx context.Context, scope string) (*Snapshot, error) {
	data, ok := f.saved[scope]
	if !ok {
		return nil, ErrNotFound
	}
	return &Snapshot{ID: 1, Scope: scope, SnapshotDate: f.savedDate, Data: data}, nil
}

func (f *fakeRepo) GetByDate(ctx context.Context, scope string, date time.Time) (*Snapshot, error) {
	if !date.Equal(f.savedDate) {
		return nil, ErrNotFound
	}
	return f.GetLatest(ctx, scope)
}

func (f *fakeRepo) List(ctx context.Context, scope string, limit int) ([]Snapshot, error) {
	s, err := f.GetLatest(ctx, scope)
	if err != nil {
		return nil, nil
	}
	return []Snapshot{*s}, nil
}

func sampleReport() *run.Report {
	summary := domain.NewPortfolioSummary()
	v := decimal.RequireFromString("70")
	summary.AddAsset("Acme", "SOL", decimal.RequireFromString("3.5"), &v)
	return &run.Report{
		Summary:     summary,
		GeneratedAt: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}
}

func TestGenerateStoresReport(t *testing.T) {
	runner := &fakeRunner{report: sampleReport()}
	repo := newFakeRepo()
	svc := NewService(runner, &fakeSource{}, repo)

	report, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
	if !report.Summary.TotalUSDValue.Equal(decimal.RequireFromString("70")) {
		t.Errorf("total = %s, want 70", report.Summary.TotalUSDValue)
	}

	// Stored under the day, not the exact timestamp.
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !repo.savedDate.Equal(want) {
		t.Errorf("saved date = %v, want %v", repo.savedDate, want)
	}

	stored, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	decoded, err := DecodeReport(stored)
	if err != nil {
		t.Fatalf("DecodeReport: %v", err)
	}
	if !decoded.Summary.TotalUSDValue.Equal(decimal.RequireFromString("70")) {
		t.Errorf("decoded total = %s, want 70", decoded.Summary.TotalUSDValue)
	}
}

func TestGenerateAccountSourceFailure(t *testing.T) {
	svc := NewService(
		&fakeRunner{report: sampleReport()},
		&fakeSource{err: errors.New("corrupt address book")},
		newFakeRepo(),
	)

	if _, err := svc.Generate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLatestNotFound(t *testing.T) {
	svc := NewService(&fakeRunner{report: sampleReport()}, &fakeSource{}, newFakeRepo())

	if _, err := svc.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
