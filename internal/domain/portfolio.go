package domain

import "github.com/shopspring/decimal"

// Uncategorized is the bucket that accounts with an empty organization label
// fold into. The raw registry data keeps its original label; normalization
// happens only at fold time.
const Uncategorized = "Uncategorized"

// AssetAggregate accumulates every balance of one symbol within one organization.
type AssetAggregate struct {
	Symbol        string          `json:"symbol"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalUSDValue decimal.Decimal `json:"totalUsdValue"`
}

// OrganizationPortfolio groups asset aggregates under one organization label.
type OrganizationPortfolio struct {
	Organization  string                     `json:"organization"`
	Assets        map[string]*AssetAggregate `json:"assets"`
	TotalUSDValue decimal.Decimal            `json:"totalUsdValue"`
}

// PortfolioSummary is the two-level (organization -> asset) rollup produced by
// one aggregation run. The grand total is maintained only through AddAsset so
// it can never drift from the sum of the organization totals.
type PortfolioSummary struct {
	Organizations map[string]*OrganizationPortfolio `json:"organizations"`
	TotalUSDValue decimal.Decimal                   `json:"totalUsdValue"`
}

// NewPortfolioSummary creates an empty summary.
func NewPortfolioSummary() *PortfolioSummary {
	return &PortfolioSummary{
		Organizations: make(map[string]*OrganizationPortfolio),
	}
}

// OrganizationKey normalizes an organization label for folding.
func OrganizationKey(organization string) string {
	if organization == "" {
		return Uncategorized
	}
	return organization
}

// AddAsset folds one balance contribution into the summary. Accumulation is
// additive per (organization, symbol), so the result is independent of fold
// order. A nil usdValue contributes nothing to the USD totals but still
// registers the symbol; zero-amount contributions are kept so that a token
// held at zero balance stays visible in the summary.
func (p *PortfolioSummary) AddAsset(organization, symbol string, amount decimal.Decimal, usdValue *decimal.Decimal) {
	key := OrganizationKey(organization)

	org, ok := p.Organizations[key]
	if !ok {
		org = &OrganizationPortfolio{
			Organization: key,
			Assets:       make(map[string]*AssetAggregate),
		}
		p.Organizations[key] = org
	}

	agg, ok := org.Assets[symbol]
	if !ok {
		agg = &AssetAggregate{Symbol: symbol}
		org.Assets[symbol] = agg
	}

	agg.TotalAmount = agg.TotalAmount.Add(amount)
	if usdValue != nil {
		agg.TotalUSDValue = agg.TotalUSDValue.Add(*usdValue)
		org.TotalUSDValue = org.TotalUSDValue.Add(*usdValue)
		p.TotalUSDValue = p.TotalUSDValue.Add(*usdValue)
	}
}
