package collector

import (
	"sort"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// SymbolsForLookup returns the sorted set of asset symbols that need a price
// lookup across all results. Balances that already carry a known USD value
// are excluded. The native symbol of every chain account is always included,
// so a wallet holding only tokens still prices its chain's native asset.
func SymbolsForLookup(results []domain.AccountResult) []string {
	set := make(map[string]struct{})

	for _, res := range results {
		if !res.Account.Kind.IsBanking() {
			set[res.Account.Kind.NativeSymbol()] = struct{}{}
		}
		for _, b := range res.Balances {
			if b.HasUSDValue() {
				continue
			}
			set[b.Symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
