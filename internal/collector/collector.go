// Package collector fans balance fetches out across all tracked accounts,
// bounding concurrency and pacing requests per provider so public RPC
// endpoints are not hammered.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/provider"
)

// AdapterFactory returns the balance adapter for a provider kind.
type AdapterFactory func(kind domain.ProviderKind, opts provider.Options) (provider.Adapter, error)

// Progress is called after each account completes, successfully or not.
// done counts completed accounts so far out of total.
type Progress func(done, total int, account domain.TrackedAccount, err error)

// Collector fetches balances for a set of tracked accounts concurrently.
type Collector struct {
	opts     provider.Options
	factory  AdapterFactory
	workers  int
	timeout  time.Duration
	interval time.Duration
	progress Progress

	mu    sync.Mutex
	gates map[domain.ProviderKind]*kindGate
}

// Option configures a Collector.
type Option func(*Collector)

// WithWorkers bounds the number of accounts fetched concurrently.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTimeout bounds how long a single account fetch may take.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInterval enforces a minimum delay between requests to the same provider.
func WithInterval(d time.Duration) Option {
	return func(c *Collector) { c.interval = d }
}

// WithProgress registers a per-account completion callback.
func WithProgress(p Progress) Option {
	return func(c *Collector) { c.progress = p }
}

// WithAdapterFactory overrides how adapters are constructed.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(c *Collector) { c.factory = f }
}

// New creates a Collector with the given provider options.
func New(opts provider.Options, options ...Option) *Collector {
	c := &Collector{
		opts:     opts,
		factory:  provider.ForKind,
		workers:  4,
		timeout:  30 * time.Second,
		interval: 200 * time.Millisecond,
		gates:    make(map[domain.ProviderKind]*kindGate),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Collect fetches balances for every account. A failing account never aborts
// the run: its error lands in the returned failures, and all other results
// are kept. Result order follows the input account order.
func (c *Collector) Collect(ctx context.Context, accounts []domain.TrackedAccount) ([]domain.AccountResult, []domain.Failure) {
	total := len(accounts)
	results := make([]*domain.AccountResult, total)
	failures := make([]*domain.Failure, total)

	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, account := range accounts {
		g.Go(func() error {
			balances, err := c.fetchOne(ctx, account)

			mu.Lock()
			if err != nil {
				failures[i] = &domain.Failure{Account: account, Err: err.Error()}
			} else {
				results[i] = &domain.AccountResult{Account: account, Balances: balances}
			}
			done++
			completed := done
			mu.Unlock()

			if err != nil {
				slog.Warn("account fetch failed",
					"account", account.Name, "kind", account.Kind, "error", err)
			}
			if c.progress != nil {
				c.progress(completed, total, account, err)
			}
			return nil
		})
	}
	g.Wait()

	var okResults []domain.AccountResult
	var failed []domain.Failure
	for i := range accounts {
		if results[i] != nil {
			okResults = append(okResults, *results[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}
	return okResults, failed
}

func (c *Collector) fetchOne(ctx context.Context, account domain.TrackedAccount) ([]domain.AssetBalance, error) {
	adapter, err := c.factory(account.Kind, c.opts)
	if err != nil {
		return nil, fmt.Errorf("creating adapter: %w", err)
	}

	if err := c.gate(account.Kind).wait(ctx, c.interval); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	balances, err := adapter.FetchBalances(fetchCtx, account.Identifier)
	if err != nil {
		return nil, err
	}
	return balances, nil
}

func (c *Collector) gate(kind domain.ProviderKind) *kindGate {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gates[kind]
	if !ok {
		g = &kindGate{}
		c.gates[kind] = g
	}
	return g
}

// kindGate enforces a minimum interval between requests to one provider.
// Concurrent callers queue up behind the last reserved slot.
type kindGate struct {
	mu   sync.Mutex
	next time.Time
}

func (g *kindGate) wait(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	g.mu.Lock()
	now := time.Now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(interval)
	g.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
