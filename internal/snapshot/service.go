package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/run"
)

// Runner defines the aggregation run interface.
type Runner interface {
	Execute(ctx context.Context, accounts []domain.TrackedAccount, opts run.Options) (*run.Report, error)
}

// AccountSource supplies the accounts to aggregate. The address book is
// re-read on every run so registry edits take effect without a restart.
type AccountSource interface {
	Accounts(ctx context.Context) ([]domain.TrackedAccount, error)
}

// Service generates and stores portfolio snapshots.
type Service struct {
	runner   Runner
	accounts AccountSource
	repo     Repository
}

// NewService creates a snapshot Service. All dependencies are required.
func NewService(runner Runner, accounts AccountSource, repo Repository) *Service {
	if runner == nil {
		panic("snapshot.NewService: runner is nil")
	}
	if accounts == nil {
		panic("snapshot.NewService: accounts is nil")
	}
	if repo == nil {
		panic("snapshot.NewService: repo is nil")
	}
	return &Service{runner: runner, accounts: accounts, repo: repo}
}

// Generate runs one aggregation pass and stores the report under today's
// date. A rerun on the same day overwrites the earlier snapshot.
func (s *Service) Generate(ctx context.Context) (*run.Report, error) {
	accounts, err := s.accounts.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	report, err := s.runner.Execute(ctx, accounts, run.Options{})
	if err != nil {
		return nil, fmt.Errorf("running aggregation: %w", err)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	date := report.GeneratedAt.Truncate(24 * time.Hour)
	if err := s.repo.Save(ctx, DefaultScope, date, data); err != nil {
		return nil, err
	}

	slog.Info("snapshot stored",
		"date", date.Format("2006-01-02"),
		"accounts", len(accounts),
		"failures", len(report.Failures))
	return report, nil
}

// Latest returns the most recent stored report.
func (s *Service) Latest(ctx context.Context) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, DefaultScope)
}

// ByDate returns the stored report for a specific day.
func (s *Service) ByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, DefaultScope, date)
}

// History lists stored snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, DefaultScope, limit)
}

// DecodeReport unmarshals a stored snapshot back into a run report.
func DecodeReport(s *Snapshot) (*run.Report, error) {
	var report run.Report
	if err := json.Unmarshal(s.Data, &report); err != nil {
		return nil, fmt.Errorf("decoding snapshot %d: %w", s.ID, err)
	}
	return &report, nil
}
