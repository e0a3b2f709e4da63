package domain

import (
	"fmt"
	"strings"
)

// ProviderKind identifies the external service that holds an account's balances:
// a blockchain (queried over RPC) or a banking API.
type ProviderKind string

const (
	KindSolana    ProviderKind = "solana"
	KindEthereum  ProviderKind = "ethereum"
	KindPolygon   ProviderKind = "polygon"
	KindBSC       ProviderKind = "bsc"
	KindArbitrum  ProviderKind = "arbitrum"
	KindOptimism  ProviderKind = "optimism"
	KindAvalanche ProviderKind = "avalanche"
	KindBase      ProviderKind = "base"
	KindCore      ProviderKind = "core"
	KindNear      ProviderKind = "near"
	KindAptos     ProviderKind = "aptos"
	KindSui       ProviderKind = "sui"
	KindStarknet  ProviderKind = "starknet"
	KindMercury   ProviderKind = "mercury"
	KindCircle    ProviderKind = "circle"
)

// kindAliases maps user-facing spellings to canonical provider kinds.
var kindAliases = map[string]ProviderKind{
	"solana": KindSolana, "sol": KindSolana,
	"ethereum": KindEthereum, "eth": KindEthereum,
	"polygon": KindPolygon, "matic": KindPolygon,
	"bsc": KindBSC, "binance": KindBSC, "bnb": KindBSC,
	"arbitrum": KindArbitrum, "arb": KindArbitrum,
	"optimism": KindOptimism, "op": KindOptimism,
	"avalanche": KindAvalanche, "avax": KindAvalanche,
	"base": KindBase,
	"core": KindCore,
	"near": KindNear,
	"aptos": KindAptos, "apt": KindAptos,
	"sui":      KindSui,
	"starknet": KindStarknet, "stark": KindStarknet,
	"mercury": KindMercury,
	"circle":  KindCircle,
}

// ParseProviderKind resolves a user-supplied kind string, accepting common aliases.
func ParseProviderKind(s string) (ProviderKind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown provider kind: %q", s)
}

// DisplayName returns the human-readable provider name.
func (k ProviderKind) DisplayName() string {
	switch k {
	case KindSolana:
		return "Solana"
	case KindEthereum:
		return "Ethereum"
	case KindPolygon:
		return "Polygon"
	case KindBSC:
		return "Binance Smart Chain"
	case KindArbitrum:
		return "Arbitrum"
	case KindOptimism:
		return "Optimism"
	case KindAvalanche:
		return "Avalanche C-Chain"
	case KindBase:
		return "Base"
	case KindCore:
		return "Core"
	case KindNear:
		return "NEAR Protocol"
	case KindAptos:
		return "Aptos"
	case KindSui:
		return "Sui"
	case KindStarknet:
		return "Starknet"
	case KindMercury:
		return "Mercury Banking"
	case KindCircle:
		return "Circle"
	default:
		return string(k)
	}
}

// NativeSymbol returns the symbol of the provider's native asset: the chain's
// gas token, or the settlement currency for banking providers.
func (k ProviderKind) NativeSymbol() string {
	switch k {
	case KindSolana:
		return "SOL"
	case KindEthereum, KindArbitrum, KindOptimism, KindBase:
		return "ETH"
	case KindPolygon:
		return "MATIC"
	case KindBSC:
		return "BNB"
	case KindAvalanche:
		return "AVAX"
	case KindCore:
		return "CORE"
	case KindNear:
		return "NEAR"
	case KindAptos:
		return "APT"
	case KindSui:
		return "SUI"
	case KindStarknet:
		return "STRK"
	case KindMercury, KindCircle:
		return "USD"
	default:
		return ""
	}
}

// IsEVM reports whether the kind is an EVM-compatible chain.
func (k ProviderKind) IsEVM() bool {
	switch k {
	case KindEthereum, KindPolygon, KindBSC, KindArbitrum, KindOptimism, KindAvalanche, KindBase, KindCore:
		return true
	}
	return false
}

// IsBanking reports whether the kind is a fiat banking service. Banking
// balances arrive already USD-denominated and never need a market price.
func (k ProviderKind) IsBanking() bool {
	return k == KindMercury || k == KindCircle
}

// TrackedAccount is one entry of the account registry: a wallet address or a
// banking account, tagged with the organization it belongs to.
type TrackedAccount struct {
	Organization string       `json:"organization"`
	Name         string       `json:"name"`
	Kind         ProviderKind `json:"kind"`
	Identifier   string       `json:"identifier"`
}

// DetectKind guesses the provider kind from the shape of a raw address.
// 0x-prefixed 40-hex-digit addresses default to Ethereum; everything else is
// assumed to be a base58 Solana address.
func DetectKind(address string) ProviderKind {
	if len(address) == 42 && strings.HasPrefix(address, "0x") && isHex(address[2:]) {
		return KindEthereum
	}
	return KindSolana
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
