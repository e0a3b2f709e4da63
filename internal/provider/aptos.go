package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/treasuryhq/gringotts/internal/domain"
)

const (
	aptosMainnetURL = "https://fullnode.mainnet.aptoslabs.com/v1"
	octaDecimals    = 8
)

// AptosAdapter queries native APT balances via the fullnode view API.
type AptosAdapter struct {
	client *httpClient
}

// NewAptosAdapter creates an Aptos adapter against the given or default endpoint.
func NewAptosAdapter(opts Options) *AptosAdapter {
	url := opts.RPCURL
	if url == "" {
		url = aptosMainnetURL
	}
	return &AptosAdapter{client: newHTTPClient(url, opts)}
}

type aptosViewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// FetchBalances returns the account's native APT balance.
func (a *AptosAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	address := identifier
	if !strings.HasPrefix(address, "0x") {
		if !isHexString(address) {
			return nil, fmt.Errorf("invalid Aptos address: %q", identifier)
		}
		address = "0x" + address
	}

	req := aptosViewRequest{
		Function:      "0x1::coin::balance",
		TypeArguments: []string{"0x1::aptos_coin::AptosCoin"},
		Arguments:     []string{address},
	}

	// View functions return an array with the result as a string of octas.
	var result []string
	if err := a.client.postJSON(ctx, "/view", req, &result); err != nil {
		return nil, fmt.Errorf("fetching APT balance: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty view response for %s", identifier)
	}

	return []domain.AssetBalance{{
		Symbol: "APT",
		Amount: domain.ParseRawUnits(result[0], octaDecimals),
	}}, nil
}

func isHexString(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return len(s) > 0
}
