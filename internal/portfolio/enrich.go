// Package portfolio turns collected balances into a priced, per-organization
// summary.
package portfolio

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// Enrich attaches a USD value to a balance using the resolved price map.
// A balance that already carries a USD value passes through untouched, so
// enrichment is idempotent and never overrides what a banking provider
// reported. A symbol absent from the price map leaves the USD value unknown.
func Enrich(balance domain.AssetBalance, prices map[string]decimal.Decimal) domain.AssetBalance {
	if balance.HasUSDValue() {
		return balance
	}
	price, ok := prices[balance.Symbol]
	if !ok {
		return balance
	}
	return balance.WithUSDValue(balance.Amount.Mul(price))
}

// EnrichResults applies Enrich to every balance of every account result.
func EnrichResults(results []domain.AccountResult, prices map[string]decimal.Decimal) []domain.AccountResult {
	return lo.Map(results, func(res domain.AccountResult, _ int) domain.AccountResult {
		res.Balances = lo.Map(res.Balances, func(b domain.AssetBalance, _ int) domain.AssetBalance {
			return Enrich(b, prices)
		})
		return res
	})
}
