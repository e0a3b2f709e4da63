package price

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

// countingSource records every upstream call and serves quotes from a table.
type countingSource struct {
	mu          sync.Mutex
	quotes      map[string]decimal.Decimal
	batchErr    error
	singleCalls map[string]int
	batchCalls  int
}

func newCountingSource(quotes map[string]string) *countingSource {
	parsed := make(map[string]decimal.Decimal, len(quotes))
	for pair, v := range quotes {
		parsed[pair] = decimal.RequireFromString(v)
	}
	return &countingSource{quotes: parsed, singleCalls: make(map[string]int)}
}

func (c *countingSource) GetPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singleCalls[pair]++
	p, ok := c.quotes[pair]
	if !ok {
		return decimal.Zero, errors.New("no feed for " + pair)
	}
	return p, nil
}

func (c *countingSource) GetPrices(ctx context.Context, pairs []string) (map[string]decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchCalls++
	if c.batchErr != nil {
		return nil, c.batchErr
	}
	out := make(map[string]decimal.Decimal)
	for _, pair := range pairs {
		if p, ok := c.quotes[pair]; ok {
			out[pair] = p
		}
	}
	return out, nil
}

func (c *countingSource) totalSingleCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.singleCalls {
		total += n
	}
	return total
}

func TestResolvePricesBatch(t *testing.T) {
	source := newCountingSource(map[string]string{
		"SOL/USD": "20",
		"ETH/USD": "2500",
	})
	svc := NewService(source)

	prices := svc.ResolvePrices(context.Background(), []string{"SOL", "ETH"})

	if len(prices) != 2 {
		t.Fatalf("prices = %v, want 2 entries", prices)
	}
	if !prices["SOL"].Equal(decimal.RequireFromString("20")) {
		t.Errorf("SOL = %s, want 20", prices["SOL"])
	}
	if source.batchCalls != 1 {
		t.Errorf("batch calls = %d, want 1", source.batchCalls)
	}
	if got := source.totalSingleCalls(); got != 0 {
		t.Errorf("single calls = %d, want 0 (batch covered everything)", got)
	}
}

func TestResolvePricesFallsBackPerSymbol(t *testing.T) {
	source := newCountingSource(map[string]string{
		"SOL/USD": "20",
		"ETH/USD": "2500",
	})
	source.batchErr = errors.New("batch endpoint down")
	svc := NewService(source)

	prices := svc.ResolvePrices(context.Background(), []string{"SOL", "ETH"})

	if len(prices) != 2 {
		t.Fatalf("prices = %v, want 2 entries", prices)
	}
	if source.singleCalls["SOL/USD"] != 1 || source.singleCalls["ETH/USD"] != 1 {
		t.Errorf("single calls = %v", source.singleCalls)
	}
}

func TestResolvePricesQuoteCurrencyFallback(t *testing.T) {
	// RAT has no USD pair, only USDT.
	source := newCountingSource(map[string]string{
		"RAT/USDT": "0.05",
	})
	source.batchErr = errors.New("down")
	svc := NewService(source)

	prices := svc.ResolvePrices(context.Background(), []string{"RAT"})

	if !prices["RAT"].Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("RAT = %s, want 0.05", prices["RAT"])
	}
	if source.singleCalls["RAT/USD"] != 1 || source.singleCalls["RAT/USDT"] != 1 {
		t.Errorf("single calls = %v, want USD tried before USDT", source.singleCalls)
	}
	if source.singleCalls["RAT/USDC"] != 0 {
		t.Errorf("USDC tried despite USDT succeeding: %v", source.singleCalls)
	}
}

func TestResolvePricesMissingSymbolAbsent(t *testing.T) {
	source := newCountingSource(map[string]string{"SOL/USD": "20"})
	svc := NewService(source)

	prices := svc.ResolvePrices(context.Background(), []string{"SOL", "OBSCURECOIN"})

	if _, ok := prices["OBSCURECOIN"]; ok {
		t.Error("unquotable symbol must be absent, not zero")
	}
	if len(prices) != 1 {
		t.Errorf("prices = %v, want only SOL", prices)
	}
}

func TestResolvePricesUnreachableSourceYieldsEmptyMap(t *testing.T) {
	source := newCountingSource(nil)
	source.batchErr = errors.New("connection refused")
	svc := NewService(source)

	prices := svc.ResolvePrices(context.Background(), []string{"SOL", "ETH"})

	if len(prices) != 0 {
		t.Errorf("prices = %v, want empty", prices)
	}
}

func TestResolvePricesCachesAcrossCalls(t *testing.T) {
	source := newCountingSource(map[string]string{"SOL/USD": "20"})
	source.batchErr = errors.New("down")
	svc := NewService(source)

	for range 5 {
		svc.ResolvePrices(context.Background(), []string{"SOL"})
	}

	if got := source.singleCalls["SOL/USD"]; got != 1 {
		t.Errorf("upstream calls for SOL = %d, want 1", got)
	}
}

func TestResolvePricesConcurrentDedup(t *testing.T) {
	source := newCountingSource(map[string]string{"SOL/USD": "20", "ETH/USD": "2500"})
	source.batchErr = errors.New("down")
	svc := NewService(source)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.ResolvePrices(context.Background(), []string{"SOL", "ETH"})
		}()
	}
	wg.Wait()

	// Concurrent resolutions collapse; each symbol reaches upstream at most
	// once per in-flight window, far fewer than 10 times.
	if got := source.singleCalls["SOL/USD"]; got > 2 {
		t.Errorf("upstream calls for SOL = %d, want <= 2", got)
	}
}

func TestCacheWriteOnce(t *testing.T) {
	cache := NewCache()
	cache.Put("SOL", decimal.RequireFromString("20"))
	cache.Put("SOL", decimal.RequireFromString("999"))

	p, ok := cache.Get("SOL")
	if !ok || !p.Equal(decimal.RequireFromString("20")) {
		t.Errorf("Get(SOL) = %s, %v; want first written value 20", p, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}
