package price

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// quoteFallbacks are tried in order when a symbol has no direct USD pair.
var quoteFallbacks = []string{"USDT", "USDC"}

// Service resolves USD prices for symbols, batching where possible and
// falling back to per-symbol lookups with alternate quote currencies.
// Concurrent resolutions of the same symbol collapse into one upstream call.
type Service struct {
	source QuoteSource
	cache  *Cache
	flight singleflight.Group
}

// NewService creates a price Service over a quote source.
func NewService(source QuoteSource) *Service {
	if source == nil {
		panic("price.NewService: source is nil")
	}
	return &Service{source: source, cache: NewCache()}
}

// ResolvePrices returns USD prices for as many of the given symbols as
// possible. Symbols the source cannot quote are simply absent from the
// result; a completely unreachable source yields an empty map, never an
// error, so a run degrades to amounts without valuations.
func (s *Service) ResolvePrices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return prices
	}

	var missing []string
	for _, symbol := range symbols {
		if p, ok := s.cache.Get(symbol); ok {
			prices[symbol] = p
		} else {
			missing = append(missing, symbol)
		}
	}
	if len(missing) == 0 {
		return prices
	}

	batched := s.batchFetch(ctx, missing)
	for _, symbol := range missing {
		p, ok := batched[symbol]
		if !ok {
			p, ok = s.resolveOne(ctx, symbol)
		}
		if ok {
			s.cache.Put(symbol, p)
			prices[symbol] = p
		}
	}

	return prices
}

// resolveOne fetches a single symbol's price, collapsing concurrent lookups
// of the same symbol into one upstream call.
func (s *Service) resolveOne(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	v, err, _ := s.flight.Do(symbol, func() (any, error) {
		if p, ok := s.cache.Get(symbol); ok {
			return p, nil
		}
		p, ok := s.singleFetch(ctx, symbol)
		if !ok {
			return decimal.Zero, fmt.Errorf("no price for %s", symbol)
		}
		return p, nil
	})
	if err != nil {
		return decimal.Zero, false
	}
	return v.(decimal.Decimal), true
}

// batchFetch asks the source for all symbols in one call. On failure it
// returns an empty map and the caller falls back to per-symbol lookups.
func (s *Service) batchFetch(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	pairs := make([]string, len(symbols))
	for i, symbol := range symbols {
		pairs[i] = symbol + "/USD"
	}

	quoted, err := s.source.GetPrices(ctx, pairs)
	if err != nil {
		slog.Warn("batch price fetch failed, falling back to per-symbol lookups", "error", err)
		return map[string]decimal.Decimal{}
	}

	prices := make(map[string]decimal.Decimal, len(quoted))
	for pair, value := range quoted {
		base, _, ok := strings.Cut(pair, "/")
		if !ok {
			continue
		}
		prices[base] = value
	}
	return prices
}

// singleFetch tries SYMBOL/USD, then the alternate quote currencies.
func (s *Service) singleFetch(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	p, err := s.source.GetPrice(ctx, symbol+"/USD")
	if err == nil {
		return p, true
	}

	for _, quote := range quoteFallbacks {
		if symbol == quote {
			continue
		}
		p, altErr := s.source.GetPrice(ctx, fmt.Sprintf("%s/%s", symbol, quote))
		if altErr == nil {
			return p, true
		}
	}

	slog.Warn("no price available", "symbol", symbol, "error", err)
	return decimal.Zero, false
}
