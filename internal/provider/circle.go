package provider

import (
	"context"
	"fmt"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// CircleAdapter queries Circle business account balances. USD balances map to
// USDC and carry a known USD value; EUR balances map to EURC and are left for
// price enrichment.
type CircleAdapter struct {
	client *httpClient
}

// NewCircleAdapter creates a Circle adapter. Requires an API key.
func NewCircleAdapter(opts Options) (*CircleAdapter, error) {
	if opts.CircleAPIKey == "" {
		return nil, fmt.Errorf("%w: CIRCLE_API_KEY not set", ErrMissingCredentials)
	}
	base := opts.CircleURL
	if base == "" {
		base = "https://api.circle.com"
	}
	client := newHTTPClient(base, opts)
	client.authHeader = "Bearer " + opts.CircleAPIKey
	return &CircleAdapter{client: client}, nil
}

type circleBalancesResponse struct {
	Data struct {
		Available []circleAmount `json:"available"`
	} `json:"data"`
}

type circleAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// FetchBalances returns available balances for the business account. The
// identifier is unused: Circle scopes balances to the API key.
func (a *CircleAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	var resp circleBalancesResponse
	if err := a.client.getJSON(ctx, "/v1/businessAccount/balances", &resp); err != nil {
		return nil, fmt.Errorf("fetching Circle balances: %w", err)
	}

	var balances []domain.AssetBalance
	for _, b := range resp.Data.Available {
		amount := domain.SafeParse(b.Amount)
		balance := domain.AssetBalance{Symbol: b.Currency, Amount: amount}
		switch b.Currency {
		case "USD":
			balance.Symbol = "USDC"
			balance.USDValue = &amount
		case "EUR":
			balance.Symbol = "EURC"
		}
		balances = append(balances, balance)
	}

	return balances, nil
}
