package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// Summarize enriches all balances and folds them into a per-organization
// summary. Accounts fold in input order, but the additive accumulation makes
// the totals order-independent.
func Summarize(results []domain.AccountResult, prices map[string]decimal.Decimal) *domain.PortfolioSummary {
	summary := domain.NewPortfolioSummary()
	for _, res := range EnrichResults(results, prices) {
		for _, b := range res.Balances {
			summary.AddAsset(res.Account.Organization, b.Symbol, b.Amount, b.USDValue)
		}
	}
	return summary
}
