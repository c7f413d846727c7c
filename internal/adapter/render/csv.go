package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"vertax/internal/core/domain"
)

var csvHeader = []string{
	"signature", "token", "amount",
	"purchase_date", "sell_date", "purchase_price", "sell_price",
	"profit", "holding_days", "term", "tax",
}

// CSVRenderer implements ports.ReportRenderer as a flat table:
// one row per processed transaction, then skipped transactions, then a totals row.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

// Render writes report to w.
func (r *CSVRenderer) Render(w io.Writer, report *domain.TaxReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, res := range report.Summary.Results {
		row := []string{
			res.Signature,
			res.TokenSymbol,
			res.Amount.String(),
			formatDay(res.PurchaseTime),
			formatDay(res.SellTime),
			res.PurchasePrice.String(),
			res.SellPrice.String(),
			res.Profit.StringFixed(2),
			strconv.FormatInt(res.HoldingPeriodDays, 10),
			string(res.Classification),
			res.Tax.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	for _, sk := range report.Summary.Skipped {
		row := make([]string, len(csvHeader))
		row[0] = sk.Signature
		row[9] = "skipped:" + sk.Code
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	total := make([]string, len(csvHeader))
	total[0] = "TOTAL"
	total[7] = report.Summary.TotalProfit.StringFixed(2)
	total[10] = report.Summary.TotalTax.StringFixed(2)
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("writing csv totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

func formatDay(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(domain.DateLayout)
}
