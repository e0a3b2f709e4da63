// Package provider implements balance adapters for every supported chain and
// banking service. Each adapter turns a provider-specific identifier into a
// normalized list of asset balances.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/treasuryhq/gringotts/internal/domain"
)

// Adapter fetches the asset balances held by one account identifier.
// Implementations return a possibly empty list on success, or an error that
// the collector records as a per-account failure.
type Adapter interface {
	FetchBalances(ctx context.Context, identifier string) ([]domain.AssetBalance, error)
}

// Options carries endpoint and credential configuration shared by all adapters.
type Options struct {
	// RPCURL overrides the default public endpoint for chain adapters.
	RPCURL string

	MercuryURL    string
	MercuryAPIKey string
	CircleURL     string
	CircleAPIKey  string

	RetryMax       int
	RetryBaseDelay time.Duration
}

// ForKind returns the adapter for a provider kind.
func ForKind(kind domain.ProviderKind, opts Options) (Adapter, error) {
	switch {
	case kind == domain.KindSolana:
		return NewSolanaAdapter(opts), nil
	case kind.IsEVM():
		return NewEVMAdapter(kind, opts)
	case kind == domain.KindNear:
		return NewNearAdapter(opts), nil
	case kind == domain.KindAptos:
		return NewAptosAdapter(opts), nil
	case kind == domain.KindSui:
		return NewSuiAdapter(opts), nil
	case kind == domain.KindStarknet:
		return NewStarknetAdapter(opts), nil
	case kind == domain.KindMercury:
		return NewMercuryAdapter(opts)
	case kind == domain.KindCircle:
		return NewCircleAdapter(opts)
	default:
		return nil, fmt.Errorf("no adapter for provider kind %q", kind)
	}
}
