package domain

import "github.com/shopspring/decimal"

// HoldingClassification is the tax term of a disposal.
type HoldingClassification string

const (
	ShortTerm HoldingClassification = "short_term"
	LongTerm  HoldingClassification = "long_term"
)

const (
	// LongTermThresholdDays is inclusive: a 365-day holding is long-term.
	LongTermThresholdDays = 365
	SecondsPerDay         = 86400
)

// TaxRates is the two-tier rate model. Both rates are fractions in [0, 1].
type TaxRates struct {
	ShortTerm decimal.Decimal `json:"short_term_rate"`
	LongTerm  decimal.Decimal `json:"long_term_rate"`
}

// For returns the rate applicable to a classification.
func (r TaxRates) For(c HoldingClassification) decimal.Decimal {
	if c == LongTerm {
		return r.LongTerm
	}
	return r.ShortTerm
}

// TransactionResult is the per-transaction detail behind a summary.
type TransactionResult struct {
	Signature         string                `json:"signature"`
	TokenSymbol       string                `json:"token_symbol"`
	Amount            decimal.Decimal       `json:"amount"`
	PurchaseTime      int64                 `json:"purchase_time"`
	SellTime          int64                 `json:"sell_time"`
	PurchasePrice     decimal.Decimal       `json:"purchase_price"`
	SellPrice         decimal.Decimal       `json:"sell_price"`
	Profit            decimal.Decimal       `json:"profit"`
	HoldingPeriodDays int64                 `json:"holding_period_days"`
	Classification    HoldingClassification `json:"classification"`
	Tax               decimal.Decimal       `json:"tax"`
}

// SkippedTransaction records why a transaction did not contribute to the totals.
type SkippedTransaction struct {
	Signature string `json:"signature"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// TaxSummary aggregates a processing run. It is immutable once returned.
type TaxSummary struct {
	TotalProfit decimal.Decimal      `json:"total_profit"`
	TotalTax    decimal.Decimal      `json:"total_tax"`
	Results     []TransactionResult  `json:"transactions"`
	Skipped     []SkippedTransaction `json:"skipped"`
}

// NewTaxSummary returns the empty {0, 0} summary.
func NewTaxSummary() *TaxSummary {
	return &TaxSummary{
		TotalProfit: decimal.Zero,
		TotalTax:    decimal.Zero,
		Results:     []TransactionResult{},
		Skipped:     []SkippedTransaction{},
	}
}

// Add accumulates one processed transaction.
func (s *TaxSummary) Add(r TransactionResult) {
	s.TotalProfit = s.TotalProfit.Add(r.Profit)
	s.TotalTax = s.TotalTax.Add(r.Tax)
	s.Results = append(s.Results, r)
}

// Skip records a transaction that was left out of the totals.
func (s *TaxSummary) Skip(signature, code, reason string) {
	s.Skipped = append(s.Skipped, SkippedTransaction{Signature: signature, Code: code, Reason: reason})
}
