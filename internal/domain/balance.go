package domain

import "github.com/shopspring/decimal"

// AssetBalance is one asset position reported by a provider adapter.
// Amount is denominated in the asset's own unit. USDValue is nil until price
// enrichment fills it in; banking providers set it directly because their
// balances are already USD-denominated. A nil USDValue means "unknown", which
// is distinct from a genuine zero value.
type AssetBalance struct {
	Symbol   string           `json:"symbol"`
	Amount   decimal.Decimal  `json:"amount"`
	USDValue *decimal.Decimal `json:"usdValue,omitempty"`
}

// HasUSDValue reports whether a USD value is attached.
func (b AssetBalance) HasUSDValue() bool {
	return b.USDValue != nil
}

// WithUSDValue returns a copy of the balance with the given USD value attached.
func (b AssetBalance) WithUSDValue(v decimal.Decimal) AssetBalance {
	b.USDValue = &v
	return b
}

// AccountResult pairs a tracked account with the balances its adapter returned.
type AccountResult struct {
	Account  TrackedAccount `json:"account"`
	Balances []AssetBalance `json:"balances"`
}

// Failure records a per-account collection error. Failures are data, not
// exceptions: a failed account is simply absent from the aggregation input.
type Failure struct {
	Account TrackedAccount `json:"account"`
	Err     string         `json:"error"`
}
