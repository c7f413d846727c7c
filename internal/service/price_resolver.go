package service

import (
	"context"

	"vertax/internal/core/domain"
	"vertax/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceResolver implements ports.PriceResolver on top of an owned PriceCache and a ProviderChain.
// Build one per processing run; the cache is never shared between resolvers.
type PriceResolver struct {
	cache *PriceCache
	chain *ProviderChain
	log   zerolog.Logger
}

// NewPriceResolver creates a resolver with an empty cache.
func NewPriceResolver(chain *ProviderChain, log zerolog.Logger) *PriceResolver {
	return NewPriceResolverWithCache(NewPriceCache(), chain, log)
}

// NewPriceResolverWithCache lets the caller seed or inspect the cache.
func NewPriceResolverWithCache(cache *PriceCache, chain *ProviderChain, log zerolog.Logger) *PriceResolver {
	return &PriceResolver{
		cache: cache,
		chain: chain,
		log:   log,
	}
}

// Resolve returns the daily price of symbol at unix time ts.
// Failures are not cached, so a later call retries the providers.
func (r *PriceResolver) Resolve(ctx context.Context, symbol string, ts int64) (decimal.Decimal, error) {
	key := domain.NewPriceKey(symbol, ts)

	if price, ok := r.cache.Get(key); ok {
		r.log.Debug().Str("key", key.String()).Msg("price cache hit")
		return price, nil
	}
	r.log.Debug().Str("key", key.String()).Msg("price cache miss")

	price, err := r.chain.Fetch(ctx, key.TokenSymbol, key.Day())
	if err != nil {
		return decimal.Zero, apperror.ErrPriceUnavailable(err)
	}

	r.cache.Put(key, price)
	return price, nil
}
