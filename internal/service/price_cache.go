package service

import (
	"vertax/internal/core/domain"

	"github.com/shopspring/decimal"
)

// PriceCache maps a daily PriceKey to a resolved price for the lifetime of one resolver.
// There is no expiry and no size bound. It is not safe for concurrent use.
type PriceCache struct {
	entries map[domain.PriceKey]decimal.Decimal
}

func NewPriceCache() *PriceCache {
	return &PriceCache{entries: make(map[domain.PriceKey]decimal.Decimal)}
}

// Get returns the cached price for key.
func (c *PriceCache) Get(key domain.PriceKey) (decimal.Decimal, bool) {
	p, ok := c.entries[key]
	return p, ok
}

// Put stores price under key, overwriting any previous value.
func (c *PriceCache) Put(key domain.PriceKey, price decimal.Decimal) {
	c.entries[key] = price
}

// Len returns the number of cached keys.
func (c *PriceCache) Len() int {
	return len(c.entries)
}
