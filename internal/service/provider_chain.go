package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vertax/internal/core/ports"
	"vertax/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProviderChain queries price providers strictly in the configured order.
// The first positive price wins; single provider failures are logged and skipped.
type ProviderChain struct {
	providers []ports.PriceProvider
	log       zerolog.Logger
}

// NewProviderChain creates a chain. At least one provider is required.
func NewProviderChain(log zerolog.Logger, providers ...ports.PriceProvider) (*ProviderChain, error) {
	if len(providers) == 0 {
		return nil, errors.New("provider chain needs at least one price provider")
	}
	return &ProviderChain{
		providers: providers,
		log:       log,
	}, nil
}

// Fetch returns the price of symbol on date from the first provider that succeeds.
// When every provider fails it returns apperror.ErrProvidersExhausted wrapping the last failure.
func (c *ProviderChain) Fetch(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	var lastErr error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return decimal.Zero, apperror.ErrProvidersExhausted(err)
		}

		price, err := p.FetchPrice(ctx, symbol, date)
		if err == nil && !price.IsPositive() {
			err = apperror.ErrProviderUnavailable(p.Name(), fmt.Errorf("non-positive price %s", price))
		}
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("provider", p.Name()).
				Str("token", symbol).
				Str("date", date.Format("2006-01-02")).
				Msg("price provider failed, trying next")
			lastErr = err
			continue
		}
		return price, nil
	}
	return decimal.Zero, apperror.ErrProvidersExhausted(lastErr)
}

// Names lists the providers in priority order.
func (c *ProviderChain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}
