package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/treasuryhq/gringotts/internal/domain"
)

const (
	starknetMainnetURL = "https://free-rpc.nethermind.io/mainnet-juno"

	// Bridged ETH token contract on Starknet and the balanceOf entry point selector.
	starknetETHContract    = "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7"
	starknetBalanceOfEntry = "0x2e4263afad30923c891518314c3c95dbe830a16874e8abc5777a9a20b54c76e"
)

// StarknetAdapter queries the bridged ETH balance of a Starknet account.
type StarknetAdapter struct {
	client *httpClient
}

// NewStarknetAdapter creates a Starknet adapter against the given or default RPC endpoint.
func NewStarknetAdapter(opts Options) *StarknetAdapter {
	url := opts.RPCURL
	if url == "" {
		url = starknetMainnetURL
	}
	return &StarknetAdapter{client: newHTTPClient(url, opts)}
}

// FetchBalances returns the account's bridged ETH balance.
func (a *StarknetAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	if !strings.HasPrefix(identifier, "0x") {
		return nil, fmt.Errorf("invalid Starknet address: %q", identifier)
	}

	params := map[string]any{
		"request": map[string]any{
			"contract_address":     starknetETHContract,
			"entry_point_selector": starknetBalanceOfEntry,
			"calldata":             []string{identifier},
		},
		"block_id": "latest",
	}

	// balanceOf returns a Uint256 as [low, high] felts; the low word covers
	// any realistic balance.
	var result []string
	if err := a.client.rpcCall(ctx, "starknet_call", params, &result); err != nil {
		return nil, fmt.Errorf("fetching Starknet balance: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty starknet_call response for %s", identifier)
	}

	return []domain.AssetBalance{{
		Symbol: "ETH",
		Amount: domain.ParseRawUnits(result[0], weiDecimals),
	}}, nil
}
