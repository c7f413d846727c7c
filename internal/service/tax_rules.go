package service

import (
	"fmt"
	"math"
	"strings"

	"vertax/internal/core/domain"
	"vertax/pkg/apperror"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// HoldingPeriodDays returns the whole days elapsed between purchase and sell (unix seconds),
// discarding any fractional day. A sale before its purchase is rejected.
func HoldingPeriodDays(purchase, sell int64) (int64, error) {
	if sell < purchase {
		return 0, apperror.ErrInvalidOrdering()
	}
	// The span of two int64 values always fits in uint64, even where sell-purchase overflows.
	span := uint64(sell) - uint64(purchase)
	return int64(span / domain.SecondsPerDay), nil
}

// Classify maps a holding period to its tax term. Exactly 365 days is long-term.
func Classify(days int64) domain.HoldingClassification {
	if days < domain.LongTermThresholdDays {
		return domain.ShortTerm
	}
	return domain.LongTerm
}

// ValidateRates checks that both rates are fractions in [0, 1].
func ValidateRates(rates domain.TaxRates) error {
	if err := validateRate("short_term_rate", rates.ShortTerm); err != nil {
		return err
	}
	return validateRate("long_term_rate", rates.LongTerm)
}

func validateRate(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(one) {
		return apperror.ErrInvalidRate(fmt.Sprintf("%s %s is outside [0, 1]", name, rate))
	}
	return nil
}

// TaxOwed applies the rate for the holding term to profit. Losses yield negative tax.
func TaxOwed(profit decimal.Decimal, days int64, rates domain.TaxRates) (decimal.Decimal, error) {
	if err := ValidateRates(rates); err != nil {
		return decimal.Zero, err
	}
	return profit.Mul(rates.For(Classify(days))), nil
}

// ParseRates parses a decimal rate pair supplied as text and validates it.
func ParseRates(short, long string) (domain.TaxRates, error) {
	s, err := decimal.NewFromString(strings.TrimSpace(short))
	if err != nil {
		return domain.TaxRates{}, apperror.ErrInvalidRate(fmt.Sprintf("short_term_rate %q is not a number", short))
	}
	l, err := decimal.NewFromString(strings.TrimSpace(long))
	if err != nil {
		return domain.TaxRates{}, apperror.ErrInvalidRate(fmt.Sprintf("long_term_rate %q is not a number", long))
	}
	rates := domain.TaxRates{ShortTerm: s, LongTerm: l}
	if err := ValidateRates(rates); err != nil {
		return domain.TaxRates{}, err
	}
	return rates, nil
}

// ParseProfit converts a textual profit into a decimal.
// NaN, infinities and anything else that is not a finite number fail with InvalidProfit.
func ParseProfit(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperror.ErrInvalidProfit(err)
	}
	return d, nil
}

// ProfitFromFloat is ParseProfit for float input.
func ProfitFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, apperror.ErrInvalidProfit(fmt.Errorf("%v is not finite", f))
	}
	return decimal.NewFromFloat(f), nil
}
