package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const NameCoinGecko = "coingecko"

// defaultCoinIDs maps common Solana-ecosystem symbols to CoinGecko coin ids.
var defaultCoinIDs = map[string]string{
	"SOL":  "solana",
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDC": "usd-coin",
	"USDT": "tether",
	"BONK": "bonk",
	"JUP":  "jupiter-exchange-solana",
	"RAY":  "raydium",
	"JTO":  "jito-governance-token",
	"WIF":  "dogwifcoin",
}

// CoinGecko reads daily prices from the /coins/{id}/history endpoint.
type CoinGecko struct {
	baseHTTPProvider
	coinIDs map[string]string
}

// NewCoinGecko creates the provider. overrides maps symbols to coin ids and wins over the built-in table.
func NewCoinGecko(cfg HTTPConfig, overrides map[string]string, log zerolog.Logger) *CoinGecko {
	ids := make(map[string]string, len(defaultCoinIDs)+len(overrides))
	for k, v := range defaultCoinIDs {
		ids[k] = v
	}
	for k, v := range overrides {
		ids[strings.ToUpper(k)] = v
	}
	return &CoinGecko{
		baseHTTPProvider: newBaseHTTPProvider(NameCoinGecko, cfg, log),
		coinIDs:          ids,
	}
}

type coinGeckoHistory struct {
	ID         string `json:"id"`
	MarketData *struct {
		CurrentPrice map[string]decimal.Decimal `json:"current_price"`
	} `json:"market_data"`
}

// FetchPrice implements ports.PriceProvider.
func (c *CoinGecko) FetchPrice(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/history?date=%s&localization=false",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.coinID(symbol)),
		date.UTC().Format("02-01-2006"),
	)

	var headers map[string]string
	if c.cfg.APIKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": c.cfg.APIKey}
	}

	var body coinGeckoHistory
	if err := c.getJSON(ctx, endpoint, headers, &body); err != nil {
		return decimal.Zero, err
	}

	// CoinGecko answers 200 without market_data for days before listing.
	if body.MarketData == nil {
		return decimal.Zero, c.unavailable(fmt.Errorf("no market data for %s on %s", symbol, date.Format("2006-01-02")))
	}
	price, ok := body.MarketData.CurrentPrice["usd"]
	if !ok {
		return decimal.Zero, c.unavailable(errors.New("usd price missing from response"))
	}
	return price, nil
}

func (c *CoinGecko) coinID(symbol string) string {
	if id, ok := c.coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}
