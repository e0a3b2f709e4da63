package price

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Cache is a write-once price store scoped to a service instance. Prices do
// not change within a run, so the first resolved value for a symbol wins and
// later writes are ignored.
type Cache struct {
	mu     sync.RWMutex
	values map[string]decimal.Decimal
}

// NewCache creates an empty price cache.
func NewCache() *Cache {
	return &Cache{values: make(map[string]decimal.Decimal)}
}

// Get returns the cached price for a symbol.
func (c *Cache) Get(symbol string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.values[symbol]
	return p, ok
}

// Put stores a price unless one is already present.
func (c *Cache) Put(symbol string, value decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[symbol]; !ok {
		c.values[symbol] = value
	}
}

// Len returns the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
