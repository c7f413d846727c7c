package service

import (
	"errors"
	"math"
	"testing"

	"vertax/internal/core/domain"
	"vertax/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldingPeriodDays(t *testing.T) {
	tests := []struct {
		name     string
		purchase int64
		sell     int64
		want     int64
	}{
		{"same instant", utc(2023, 1, 1, 0, 0, 0), utc(2023, 1, 1, 0, 0, 0), 0},
		{"just under a day", utc(2023, 1, 1, 0, 0, 0), utc(2023, 1, 1, 23, 59, 59), 0},
		{"exactly one day", utc(2023, 1, 1, 0, 0, 0), utc(2023, 1, 2, 0, 0, 0), 1},
		{"fraction discarded", utc(2023, 1, 1, 12, 0, 0), utc(2023, 1, 3, 11, 0, 0), 1},
		{"364 days", utc(2022, 1, 1, 0, 0, 0), utc(2022, 12, 31, 0, 0, 0), 364},
		{"365 days", utc(2022, 1, 1, 0, 0, 0), utc(2023, 1, 1, 0, 0, 0), 365},
		{"leap year", utc(2024, 1, 1, 0, 0, 0), utc(2025, 1, 1, 0, 0, 0), 366},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HoldingPeriodDays(tt.purchase, tt.sell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHoldingPeriodDays_InvalidOrdering(t *testing.T) {
	_, err := HoldingPeriodDays(utc(2023, 6, 1, 0, 0, 0), utc(2023, 5, 1, 0, 0, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidOrdering()))

	_, err = HoldingPeriodDays(100, 99)
	assert.True(t, errors.Is(err, apperror.ErrInvalidOrdering()))
}

func TestHoldingPeriodDays_ExtremeTimestamps(t *testing.T) {
	days, err := HoldingPeriodDays(math.MinInt64, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(uint64(math.MaxUint64)/domain.SecondsPerDay), days)
	assert.Equal(t, domain.LongTerm, Classify(days))

	days, err = HoldingPeriodDays(-domain.SecondsPerDay*400, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(400), days)
}

func TestClassify_Boundary(t *testing.T) {
	tests := []struct {
		days int64
		want domain.HoldingClassification
	}{
		{0, domain.ShortTerm},
		{180, domain.ShortTerm},
		{364, domain.ShortTerm},
		{365, domain.LongTerm},
		{366, domain.LongTerm},
		{3650, domain.LongTerm},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.days), "days=%d", tt.days)
	}
}

func TestTaxOwed(t *testing.T) {
	rates := domain.TaxRates{ShortTerm: dec("0.15"), LongTerm: dec("0.05")}

	tests := []struct {
		name   string
		profit string
		days   int64
		want   string
	}{
		{"short term gain", "1000.0", 180, "150"},
		{"long term gain", "1000.0", 365, "50"},
		{"short term loss is symmetric", "-200", 10, "-30"},
		{"long term loss is symmetric", "-200", 400, "-10"},
		{"zero profit", "0", 10, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TaxOwed(dec(tt.profit), tt.days, rates)
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestTaxOwed_InvalidRate(t *testing.T) {
	tests := []struct {
		name  string
		rates domain.TaxRates
	}{
		{"negative short", domain.TaxRates{ShortTerm: dec("-0.01"), LongTerm: dec("0.1")}},
		{"short above one", domain.TaxRates{ShortTerm: dec("1.01"), LongTerm: dec("0.1")}},
		{"negative long", domain.TaxRates{ShortTerm: dec("0.1"), LongTerm: dec("-1")}},
		{"long above one", domain.TaxRates{ShortTerm: dec("0.1"), LongTerm: dec("2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TaxOwed(dec("100"), 10, tt.rates)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrInvalidRate("")))
		})
	}
}

func TestValidateRates_Bounds(t *testing.T) {
	assert.NoError(t, ValidateRates(domain.TaxRates{ShortTerm: dec("0"), LongTerm: dec("1")}))
	assert.NoError(t, ValidateRates(domain.TaxRates{ShortTerm: dec("1"), LongTerm: dec("0")}))
}

func TestParseRates(t *testing.T) {
	rates, err := ParseRates("0.25", " 0.15 ")
	require.NoError(t, err)
	assert.True(t, rates.ShortTerm.Equal(dec("0.25")))
	assert.True(t, rates.LongTerm.Equal(dec("0.15")))

	_, err = ParseRates("abc", "0.15")
	assert.True(t, errors.Is(err, apperror.ErrInvalidRate("")))

	_, err = ParseRates("0.25", "1.5")
	assert.True(t, errors.Is(err, apperror.ErrInvalidRate("")))
}

func TestParseProfit(t *testing.T) {
	p, err := ParseProfit("1000.50")
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("1000.5")))

	p, err = ParseProfit("-12")
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("-12")))

	for _, bad := range []string{"NaN", "Inf", "-Infinity", "", "12abc"} {
		_, err := ParseProfit(bad)
		assert.True(t, errors.Is(err, apperror.ErrInvalidProfit(nil)), "input %q", bad)
	}
}

func TestProfitFromFloat(t *testing.T) {
	p, err := ProfitFromFloat(12.5)
	require.NoError(t, err)
	assert.True(t, p.Equal(dec("12.5")))

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ProfitFromFloat(bad)
		assert.True(t, errors.Is(err, apperror.ErrInvalidProfit(nil)))
	}
}
