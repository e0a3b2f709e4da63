package provider

import (
	"context"
	"fmt"

	"github.com/treasuryhq/gringotts/internal/domain"
)

const (
	nearMainnetURL = "https://rpc.mainnet.near.org"
	yoctoDecimals  = 24
)

// NearAdapter queries native NEAR balances over the NEAR JSON-RPC API.
type NearAdapter struct {
	client *httpClient
}

// NewNearAdapter creates a NEAR adapter against the given or default RPC endpoint.
func NewNearAdapter(opts Options) *NearAdapter {
	url := opts.RPCURL
	if url == "" {
		url = nearMainnetURL
	}
	return &NearAdapter{client: newHTTPClient(url, opts)}
}

type nearViewAccountResult struct {
	Amount string `json:"amount"`
}

// FetchBalances returns the account's native NEAR balance.
func (a *NearAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	params := map[string]string{
		"request_type": "view_account",
		"finality":     "final",
		"account_id":   identifier,
	}

	var result nearViewAccountResult
	if err := a.client.rpcCall(ctx, "query", params, &result); err != nil {
		return nil, fmt.Errorf("fetching NEAR account: %w", err)
	}
	if result.Amount == "" {
		return nil, fmt.Errorf("no balance in view_account response for %s", identifier)
	}

	return []domain.AssetBalance{{
		Symbol: "NEAR",
		Amount: domain.ParseRawUnits(result.Amount, yoctoDecimals),
	}}, nil
}
