package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/treasuryhq/gringotts/internal/domain"
)

const (
	weiDecimals = 18

	selectorBalanceOf = "0x70a08231"
	selectorDecimals  = "0x313ce567"
)

type evmChain struct {
	rpcURL string
	tokens []evmToken
}

type evmToken struct {
	address string
	symbol  string
}

// evmChains holds the default public RPC endpoint and stablecoin watchlist per chain.
var evmChains = map[domain.ProviderKind]evmChain{
	domain.KindEthereum: {
		rpcURL: "https://eth.llamarpc.com",
		tokens: []evmToken{
			{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "USDC"},
			{"0xdAC17F958D2ee523a2206206994597C13D831ec7", "USDT"},
			{"0x6B175474E89094C44Da98b954EedeAC495271d0F", "DAI"},
		},
	},
	domain.KindPolygon: {
		rpcURL: "https://polygon-rpc.com",
		tokens: []evmToken{
			{"0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", "USDC"},
			{"0xc2132D05D31c914a87C6611C10748AEb04B58e8F", "USDT"},
			{"0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063", "DAI"},
		},
	},
	domain.KindBSC: {
		rpcURL: "https://bsc-dataseed.binance.org",
		tokens: []evmToken{
			{"0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", "USDC"},
			{"0x55d398326f99059fF775485246999027B3197955", "USDT"},
			{"0x1AF3F329e8BE154074D8769D1FFa4eE058B1DBc3", "DAI"},
		},
	},
	domain.KindArbitrum: {
		rpcURL: "https://arb1.arbitrum.io/rpc",
		tokens: []evmToken{
			{"0xaf88d065e77c8cC2239327C5EDb3A432268e5831", "USDC"},
			{"0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", "USDT"},
			{"0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", "DAI"},
		},
	},
	domain.KindOptimism: {
		rpcURL: "https://mainnet.optimism.io",
		tokens: []evmToken{
			{"0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", "USDC"},
			{"0x94b008aA00579c1307B0EF2c499aD98a8ce58e58", "USDT"},
			{"0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", "DAI"},
		},
	},
	domain.KindAvalanche: {
		rpcURL: "https://api.avax.network/ext/bc/C/rpc",
		tokens: []evmToken{
			{"0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", "USDC"},
			{"0x9702230A8Ea53601f5cD2dc00fDBc13d4dF4A8c7", "USDT"},
			{"0xd586E7F844cEa2F87f50152665BCbc2C279D8d70", "DAI"},
		},
	},
	domain.KindBase: {
		rpcURL: "https://mainnet.base.org",
		tokens: []evmToken{
			{"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "USDC"},
			{"0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", "DAI"},
		},
	},
	domain.KindCore: {
		rpcURL: "https://rpc.coredao.org",
		tokens: []evmToken{
			{"0xa4151B2B3e269645181dCcF2D426cE75fcbDeca9", "USDT"},
			{"0x900101d06A7426441Ae63e9AB3B9b0F63Be145F1", "USDC"},
		},
	},
}

// EVMAdapter queries native and ERC-20 balances over the JSON-RPC eth_ namespace.
// One adapter instance serves one chain.
type EVMAdapter struct {
	client *httpClient
	kind   domain.ProviderKind
	chain  evmChain
}

// NewEVMAdapter creates an adapter for an EVM-compatible chain.
func NewEVMAdapter(kind domain.ProviderKind, opts Options) (*EVMAdapter, error) {
	chain, ok := evmChains[kind]
	if !ok {
		return nil, fmt.Errorf("%q is not an EVM chain", kind)
	}
	url := opts.RPCURL
	if url == "" {
		url = chain.rpcURL
	}
	return &EVMAdapter{client: newHTTPClient(url, opts), kind: kind, chain: chain}, nil
}

// FetchBalances returns the native balance plus non-zero watchlist token balances.
func (a *EVMAdapter) FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error) {
	if !strings.HasPrefix(identifier, "0x") || len(identifier) != 42 {
		return nil, fmt.Errorf("invalid EVM address: %q", identifier)
	}

	var weiHex string
	if err := a.client.rpcCall(ctx, "eth_getBalance", []any{identifier, "latest"}, &weiHex); err != nil {
		return nil, fmt.Errorf("fetching native balance: %w", err)
	}

	balances := []domain.AssetBalance{{
		Symbol: a.kind.NativeSymbol(),
		Amount: domain.ParseRawUnits(weiHex, weiDecimals),
	}}

	for _, token := range a.chain.tokens {
		balance, err := a.tokenBalance(ctx, identifier, token)
		if err != nil {
			slog.Warn("token balance query failed", "chain", a.kind, "token", token.symbol, "error", err)
			continue
		}
		if balance.Amount.IsZero() {
			continue
		}
		balances = append(balances, balance)
	}

	return balances, nil
}

func (a *EVMAdapter) tokenBalance(ctx context.Context, wallet string, token evmToken) (domain.AssetBalance, error) {
	raw, err := a.ethCall(ctx, token.address, selectorBalanceOf+padAddress(wallet))
	if err != nil {
		return domain.AssetBalance{}, fmt.Errorf("balanceOf: %w", err)
	}

	decRaw, err := a.ethCall(ctx, token.address, selectorDecimals)
	if err != nil {
		return domain.AssetBalance{}, fmt.Errorf("decimals: %w", err)
	}
	decimals := int32(domain.ParseRawUnits(decRaw, 0).IntPart())
	if decimals <= 0 || decimals > 36 {
		decimals = 18
	}

	return domain.AssetBalance{
		Symbol: token.symbol,
		Amount: domain.ParseRawUnits(raw, decimals),
	}, nil
}

func (a *EVMAdapter) ethCall(ctx context.Context, to, data string) (string, error) {
	var result string
	params := []any{map[string]string{"to": to, "data": data}, "latest"}
	if err := a.client.rpcCall(ctx, "eth_call", params, &result); err != nil {
		return "", err
	}
	return result, nil
}

// padAddress left-pads a 0x address to a 32-byte ABI word.
func padAddress(address string) string {
	hex := strings.TrimPrefix(strings.ToLower(address), "0x")
	return strings.Repeat("0", 64-len(hex)) + hex
}
