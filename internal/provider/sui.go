package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/treasuryhq/gringotts/internal/domain"
)

const (
	suiMainnetURL = "https://fullnode.mainnet.sui.io:443"
	mistDecimals  = 9
	suiCoinType   = "0x2::sui::SUI"
)

// SuiAdapter queries native SUI balances over the Sui JSON-RPC API.
type SuiAdapter struct {
	client *httpClient
}

// NewSuiAdapter creates a Sui adapter against the given or default RPC endpoint.
func NewSuiAdapter(opts Options) *SuiAdapter {
	url := opts.RPCURL
	if url == "" {
		url = suiMainnetURL
	}
	return &SuiAdapter{client: newHTTPClient(url, opts)}
}

type suiBalanceResult struct {
	TotalBalance string `json:"totalBalance"`
}

// FetchBalances returns the account's native SUI balance.
func (a *SuiAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	if !strings.HasPrefix(identifier, "0x") {
		return nil, fmt.Errorf("invalid Sui address: %q", identifier)
	}

	var result suiBalanceResult
	if err := a.client.rpcCall(ctx, "suix_getBalance", []any{identifier, suiCoinType}, &result); err != nil {
		return nil, fmt.Errorf("fetching SUI balance: %w", err)
	}
	if result.TotalBalance == "" {
		return nil, fmt.Errorf("no balance in suix_getBalance response for %s", identifier)
	}

	return []domain.AssetBalance{{
		Symbol: "SUI",
		Amount: domain.ParseRawUnits(result.TotalBalance, mistDecimals),
	}}, nil
}
