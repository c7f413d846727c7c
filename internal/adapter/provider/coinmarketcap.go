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

const NameCoinMarketCap = "coinmarketcap"

// CoinMarketCap reads daily quotes from /v1/cryptocurrency/quotes/historical.
type CoinMarketCap struct {
	baseHTTPProvider
}

func NewCoinMarketCap(cfg HTTPConfig, log zerolog.Logger) *CoinMarketCap {
	return &CoinMarketCap{baseHTTPProvider: newBaseHTTPProvider(NameCoinMarketCap, cfg, log)}
}

type cmcHistorical struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data struct {
		Symbol string `json:"symbol"`
		Quotes []struct {
			Timestamp string `json:"timestamp"`
			Quote     map[string]struct {
				Price *decimal.Decimal `json:"price"`
			} `json:"quote"`
		} `json:"quotes"`
	} `json:"data"`
}

// FetchPrice implements ports.PriceProvider.
func (c *CoinMarketCap) FetchPrice(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	if c.cfg.APIKey == "" {
		return decimal.Zero, c.unavailable(errors.New("api key not configured"))
	}

	day := date.UTC()
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("time_start", day.Format(time.RFC3339))
	q.Set("time_end", day.Add(24*time.Hour-time.Second).Format(time.RFC3339))
	q.Set("count", "1")
	q.Set("interval", "daily")
	q.Set("convert", "USD")
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/cryptocurrency/quotes/historical?" + q.Encode()

	var body cmcHistorical
	if err := c.getJSON(ctx, endpoint, map[string]string{"X-CMC_PRO_API_KEY": c.cfg.APIKey}, &body); err != nil {
		return decimal.Zero, err
	}

	if body.Status.ErrorCode != 0 {
		return decimal.Zero, c.unavailable(fmt.Errorf("api error %d: %s", body.Status.ErrorCode, body.Status.ErrorMessage))
	}
	if len(body.Data.Quotes) == 0 {
		return decimal.Zero, c.unavailable(fmt.Errorf("no quotes for %s on %s", symbol, day.Format("2006-01-02")))
	}
	usd, ok := body.Data.Quotes[0].Quote["USD"]
	if !ok || usd.Price == nil {
		return decimal.Zero, c.unavailable(errors.New("usd price missing from response"))
	}
	return *usd.Price, nil
}
