package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// ErrMissingCredentials indicates that a banking adapter has no API key configured.
var ErrMissingCredentials = errors.New("missing API credentials")

// MercuryAdapter queries Mercury banking account balances. Mercury balances
// are USD-denominated, so the known USD value equals the amount.
type MercuryAdapter struct {
	client *httpClient
}

// NewMercuryAdapter creates a Mercury adapter. Requires an API key.
func NewMercuryAdapter(opts Options) (*MercuryAdapter, error) {
	if opts.MercuryAPIKey == "" {
		return nil, fmt.Errorf("%w: MERCURY_API_KEY not set", ErrMissingCredentials)
	}
	base := opts.MercuryURL
	if base == "" {
		base = "https://api.mercury.com/api/v1"
	}
	client := newHTTPClient(base, opts)
	client.authHeader = "Bearer " + opts.MercuryAPIKey
	return &MercuryAdapter{client: client}, nil
}

// MercuryAccount is one account as listed by the Mercury API.
type MercuryAccount struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	Kind           string  `json:"kind"`
	CurrentBalance float64 `json:"currentBalance"`
}

// MercuryTransaction is one transaction row for the export flow.
type MercuryTransaction struct {
	ID               string  `json:"id"`
	Amount           float64 `json:"amount"`
	CreatedAt        string  `json:"createdAt"`
	PostedAt         string  `json:"postedAt"`
	Status           string  `json:"status"`
	Note             string  `json:"note"`
	BankDescription  string  `json:"bankDescription"`
	CounterpartyName string  `json:"counterpartyName"`
	Kind             string  `json:"kind"`
}

type mercuryAccountResponse struct {
	CurrentBalance float64 `json:"currentBalance"`
	Status         string  `json:"status"`
}

type mercuryAccountsResponse struct {
	Accounts []MercuryAccount `json:"accounts"`
}

type mercuryTransactionsResponse struct {
	Total        int                  `json:"total"`
	Transactions []MercuryTransaction `json:"transactions"`
}

// FetchBalances returns the account's current balance as a USD position with
// a known USD value attached.
func (a *MercuryAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	var resp mercuryAccountResponse
	if err := a.client.getJSON(ctx, "/account/"+url.PathEscape(identifier), &resp); err != nil {
		return nil, fmt.Errorf("fetching Mercury account: %w", err)
	}

	amount := decimal.NewFromFloat(resp.CurrentBalance)
	return []domain.AssetBalance{{
		Symbol:   "USD",
		Amount:   amount,
		USDValue: &amount,
	}}, nil
}

// ListAccounts returns all accounts visible to the API key, for the setup flow.
func (a *MercuryAdapter) ListAccounts(ctx context.Context) ([]MercuryAccount, error) {
	var resp mercuryAccountsResponse
	if err := a.client.getJSON(ctx, "/accounts", &resp); err != nil {
		return nil, fmt.Errorf("listing Mercury accounts: %w", err)
	}
	return resp.Accounts, nil
}

// FetchTransactions returns transactions for an account, optionally bounded by
// YYYY-MM-DD start/end dates.
func (a *MercuryAdapter) FetchTransactions(ctx context.Context, identifier, start, end string) ([]MercuryTransaction, error) {
	query := url.Values{"limit": {"500"}, "order": {"desc"}}
	if start != "" {
		query.Set("start", start)
	}
	if end != "" {
		query.Set("end", end)
	}

	var resp mercuryTransactionsResponse
	path := "/account/" + url.PathEscape(identifier) + "/transactions?" + query.Encode()
	if err := a.client.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching Mercury transactions: %w", err)
	}
	return resp.Transactions, nil
}
