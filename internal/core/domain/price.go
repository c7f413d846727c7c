package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day format of a PriceKey.
const DateLayout = "2006-01-02"

// PriceKey identifies one daily price: providers quote one price per token per UTC day,
// so every timestamp within the same UTC day maps to the same key.
type PriceKey struct {
	TokenSymbol string
	Date        string
}

// NewPriceKey normalizes symbol and truncates ts (unix seconds) to its UTC calendar day.
func NewPriceKey(symbol string, ts int64) PriceKey {
	return PriceKey{
		TokenSymbol: NormalizeSymbol(symbol),
		Date:        UTCDay(ts).Format(DateLayout),
	}
}

// Day returns the key's date as UTC midnight.
func (k PriceKey) Day() time.Time {
	d, _ := time.ParseInLocation(DateLayout, k.Date, time.UTC)
	return d
}

func (k PriceKey) String() string {
	return k.TokenSymbol + "@" + k.Date
}

// NormalizeSymbol makes "sol", " SOL " and "SOL" the same token.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// UTCDay returns midnight UTC of the day containing ts.
func UTCDay(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
