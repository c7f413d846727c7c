package dto

import (
	"encoding/json"
	"strings"
	"time"

	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/pkg/apperror"

	"github.com/shopspring/decimal"
)

// RatesRequest carries an optional rate override. Missing rates fall back to the configured defaults.
type RatesRequest struct {
	ShortTermRate *string `json:"short_term_rate,omitempty" binding:"omitempty,decimal"`
	LongTermRate  *string `json:"long_term_rate,omitempty" binding:"omitempty,decimal"`
}

// Apply overlays the requested rates on defaults. Range checks happen in the service.
func (r RatesRequest) Apply(defaults domain.TaxRates) (domain.TaxRates, error) {
	rates := defaults
	if r.ShortTermRate != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*r.ShortTermRate))
		if err != nil {
			return domain.TaxRates{}, apperror.ErrInvalidRate("short_term_rate is not a number")
		}
		rates.ShortTerm = d
	}
	if r.LongTermRate != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*r.LongTermRate))
		if err != nil {
			return domain.TaxRates{}, apperror.ErrInvalidRate("long_term_rate is not a number")
		}
		rates.LongTerm = d
	}
	return rates, nil
}

// CalculateRequest is the request body for a tax calculation over caller-supplied records.
type CalculateRequest struct {
	Transactions []domain.RawTransaction `json:"transactions" binding:"required,max=10000"`
	RatesRequest
}

// EstimateRequest is the request body for a single what-if computation.
// Profit is a JSON number or a numeric string.
type EstimateRequest struct {
	Profit            json.Number `json:"profit" binding:"required"`
	HoldingPeriodDays *int64      `json:"holding_period_days" binding:"required"`
	RatesRequest
}

// SummaryResponse is the response body for a calculation.
type SummaryResponse struct {
	TotalProfit    string                      `json:"total_profit"`
	TotalTax       string                      `json:"total_tax"`
	ProcessedCount int                         `json:"processed_count"`
	SkippedCount   int                         `json:"skipped_count"`
	Transactions   []domain.TransactionResult  `json:"transactions"`
	Skipped        []domain.SkippedTransaction `json:"skipped"`
}

// EstimateResponse is the response body for an estimate.
type EstimateResponse struct {
	Profit            string `json:"profit"`
	HoldingPeriodDays int64  `json:"holding_period_days"`
	Classification    string `json:"classification"`
	Rate              string `json:"rate"`
	Tax               string `json:"tax"`
}

// ReportResponse is the response body for a generated wallet report.
type ReportResponse struct {
	ID            string          `json:"id"`
	ShortTermRate string          `json:"short_term_rate"`
	LongTermRate  string          `json:"long_term_rate"`
	Summary       SummaryResponse `json:"summary"`
	CreatedAt     string          `json:"created_at"`
}

// ReportListItem is one entry of a wallet's report history.
type ReportListItem struct {
	ID             string `json:"id"`
	ShortTermRate  string `json:"short_term_rate"`
	LongTermRate   string `json:"long_term_rate"`
	TotalProfit    string `json:"total_profit"`
	TotalTax       string `json:"total_tax"`
	ProcessedCount int    `json:"processed_count"`
	SkippedCount   int    `json:"skipped_count"`
	CreatedAt      string `json:"created_at"`
}

// ReportListResponse wraps a wallet's report history.
type ReportListResponse struct {
	Reports []ReportListItem `json:"reports"`
	Count   int              `json:"count"`
}

// ToSummaryResponse converts a domain summary.
func ToSummaryResponse(s *domain.TaxSummary) SummaryResponse {
	return SummaryResponse{
		TotalProfit:    s.TotalProfit.String(),
		TotalTax:       s.TotalTax.String(),
		ProcessedCount: len(s.Results),
		SkippedCount:   len(s.Skipped),
		Transactions:   s.Results,
		Skipped:        s.Skipped,
	}
}

// ToEstimateResponse converts a service estimate.
func ToEstimateResponse(e *ports.TaxEstimate) EstimateResponse {
	return EstimateResponse{
		Profit:            e.Profit.String(),
		HoldingPeriodDays: e.HoldingPeriodDays,
		Classification:    string(e.Classification),
		Rate:              e.Rate.String(),
		Tax:               e.Tax.String(),
	}
}

// ToReportResponse converts a stored report.
func ToReportResponse(r *domain.TaxReport) ReportResponse {
	return ReportResponse{
		ID:            r.ID.String(),
		ShortTermRate: r.Rates.ShortTerm.String(),
		LongTermRate:  r.Rates.LongTerm.String(),
		Summary:       ToSummaryResponse(&r.Summary),
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToReportListResponse converts a report history.
func ToReportListResponse(reports []domain.TaxReport) ReportListResponse {
	items := make([]ReportListItem, 0, len(reports))
	for _, r := range reports {
		items = append(items, ReportListItem{
			ID:             r.ID.String(),
			ShortTermRate:  r.Rates.ShortTerm.String(),
			LongTermRate:   r.Rates.LongTerm.String(),
			TotalProfit:    r.Summary.TotalProfit.String(),
			TotalTax:       r.Summary.TotalTax.String(),
			ProcessedCount: r.ProcessedCount,
			SkippedCount:   r.SkippedCount,
			CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return ReportListResponse{Reports: items, Count: len(items)}
}
