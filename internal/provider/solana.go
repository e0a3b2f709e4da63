package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/treasuryhq/gringotts/internal/domain"
)

const (
	solanaMainnetURL  = "https://api.mainnet-beta.solana.com"
	splTokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	lamportsPerSOLExp = 9
)

// knownMints maps well-known SPL token mints to their symbols. Tokens outside
// this table are skipped: without on-chain metadata lookups there is no
// reliable symbol to aggregate them under.
var knownMints = map[string]string{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "MSOL",
	"7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj": "stSOL",
	"SW1TCHLmRGTfW5xZknqQdpdarB8PD95sJYWpNp9TbFx":  "SWTCH",
	"jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL":  "JTO",
	"GP2vH92rxSHWm2VzttZBZdeFnv9LyfFJYvPrAet6pump": "RAT",
}

// SolanaAdapter queries SOL and SPL token balances over Solana JSON-RPC.
type SolanaAdapter struct {
	client *httpClient
}

// NewSolanaAdapter creates a Solana adapter against the given or default RPC endpoint.
func NewSolanaAdapter(opts Options) *SolanaAdapter {
	url := opts.RPCURL
	if url == "" {
		url = solanaMainnetURL
	}
	return &SolanaAdapter{client: newHTTPClient(url, opts)}
}

type solanaBalanceResult struct {
	Value uint64 `json:"value"`
}

type solanaTokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string `json:"mint"`
						TokenAmount struct {
							Amount   string `json:"amount"`
							Decimals int32  `json:"decimals"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// FetchBalances returns the SOL balance plus balances of known SPL tokens.
func (a *SolanaAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	var solResult solanaBalanceResult
	if err := a.client.rpcCall(ctx, "getBalance", []any{identifier}, &solResult); err != nil {
		return nil, fmt.Errorf("fetching SOL balance: %w", err)
	}

	balances := []domain.AssetBalance{{
		Symbol: "SOL",
		Amount: domain.ParseRawUnits(fmt.Sprintf("%d", solResult.Value), lamportsPerSOLExp),
	}}

	var tokenResult solanaTokenAccountsResult
	params := []any{
		identifier,
		map[string]string{"programId": splTokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	}
	if err := a.client.rpcCall(ctx, "getTokenAccountsByOwner", params, &tokenResult); err != nil {
		return nil, fmt.Errorf("fetching token accounts: %w", err)
	}

	for _, acc := range tokenResult.Value {
		info := acc.Account.Data.Parsed.Info
		symbol, ok := knownMints[info.Mint]
		if !ok {
			slog.Debug("skipping token with unknown mint", "mint", info.Mint)
			continue
		}
		balances = append(balances, domain.AssetBalance{
			Symbol: symbol,
			Amount: domain.ParseRawUnits(info.TokenAmount.Amount, info.TokenAmount.Decimals),
		})
	}

	return balances, nil
}
