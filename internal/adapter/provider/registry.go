package provider

import (
	"fmt"

	"vertax/config"
	"vertax/internal/core/ports"

	"github.com/rs/zerolog"
)

// FromConfig builds the providers named in cfg.Order, in that order.
func FromConfig(cfg config.ProvidersConfig, log zerolog.Logger) ([]ports.PriceProvider, error) {
	if len(cfg.Order) == 0 {
		return nil, fmt.Errorf("providers.order is empty")
	}

	out := make([]ports.PriceProvider, 0, len(cfg.Order))
	seen := make(map[string]bool, len(cfg.Order))
	for _, name := range cfg.Order {
		if seen[name] {
			return nil, fmt.Errorf("provider %q listed twice", name)
		}
		seen[name] = true

		switch name {
		case NameCoinGecko:
			hc := DefaultHTTPConfig(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey, cfg.RequestsPerSecond, cfg.RequestTimeout)
			out = append(out, NewCoinGecko(hc, cfg.CoinGecko.CoinIDs, log))
		case NameCoinMarketCap:
			hc := DefaultHTTPConfig(cfg.CoinMarketCap.BaseURL, cfg.CoinMarketCap.APIKey, cfg.RequestsPerSecond, cfg.RequestTimeout)
			out = append(out, NewCoinMarketCap(hc, log))
		default:
			return nil, fmt.Errorf("unknown price provider %q", name)
		}
	}
	return out, nil
}
