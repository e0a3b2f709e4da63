// Package run orchestrates one aggregation pass: collect balances, resolve
// prices, enrich, and fold into a portfolio summary.
package run

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/treasuryhq/gringotts/internal/collector"
	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/portfolio"
)

// Collector defines the balance collection interface.
type Collector interface {
	Collect(ctx context.Context, accounts []domain.TrackedAccount) ([]domain.AccountResult, []domain.Failure)
}

// PriceResolver defines the price resolution interface.
type PriceResolver interface {
	ResolvePrices(ctx context.Context, symbols []string) map[string]decimal.Decimal
}

// Report is the outcome of one aggregation run.
type Report struct {
	Summary     *domain.PortfolioSummary   `json:"summary"`
	Results     []domain.AccountResult     `json:"results"`
	Failures    []domain.Failure           `json:"failures,omitempty"`
	Prices      map[string]decimal.Decimal `json:"prices"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

// Options controls a single run.
type Options struct {
	// NoPrices skips price resolution; balances keep only provider-known
	// USD values.
	NoPrices bool
}

// Service runs the full aggregation pipeline.
type Service struct {
	collector Collector
	prices    PriceResolver
}

// NewService creates a run Service. Both dependencies are required.
func NewService(c Collector, p PriceResolver) *Service {
	if c == nil {
		panic("run.NewService: collector is nil")
	}
	if p == nil {
		panic("run.NewService: prices is nil")
	}
	return &Service{collector: c, prices: p}
}

// Execute performs one aggregation run over the given accounts. Per-account
// failures never abort the run; they are reported alongside the summary.
func (s *Service) Execute(ctx context.Context, accounts []domain.TrackedAccount, opts Options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results, failures := s.collector.Collect(ctx, accounts)
	if len(failures) > 0 {
		slog.Warn("some accounts failed to collect", "failed", len(failures), "total", len(accounts))
	}

	prices := map[string]decimal.Decimal{}
	if !opts.NoPrices {
		symbols := collector.SymbolsForLookup(results)
		prices = s.prices.ResolvePrices(ctx, symbols)
		if len(prices) < len(symbols) {
			slog.Warn("some symbols could not be priced",
				"requested", len(symbols), "resolved", len(prices))
		}
	}

	return &Report{
		Summary:     portfolio.Summarize(results, prices),
		Results:     portfolio.EnrichResults(results, prices),
		Failures:    failures,
		Prices:      prices,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
