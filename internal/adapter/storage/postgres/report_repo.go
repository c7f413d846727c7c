package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"vertax/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ReportRepo implements ports.ReportRepository.
type ReportRepo struct {
	pool Pool
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(pool Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Create inserts a generated report. Totals are duplicated into columns for SQL aggregation;
// the full summary is kept as JSONB.
func (r *ReportRepo) Create(ctx context.Context, report *domain.TaxReport) error {
	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("marshal report summary: %w", err)
	}

	query := `INSERT INTO tax_reports (id, wallet_fingerprint, wallet_encrypted, short_term_rate, long_term_rate,
		total_profit, total_tax, processed_count, skipped_count, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.pool.Exec(ctx, query,
		report.ID, report.WalletFingerprint, report.WalletEncrypted,
		report.Rates.ShortTerm.String(), report.Rates.LongTerm.String(),
		report.Summary.TotalProfit.String(), report.Summary.TotalTax.String(),
		report.ProcessedCount, report.SkippedCount, summary, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tax report: %w", err)
	}
	return nil
}

// ListByWallet returns up to limit reports for a wallet fingerprint, newest first.
func (r *ReportRepo) ListByWallet(ctx context.Context, fingerprint string, limit int) ([]domain.TaxReport, error) {
	query := `SELECT id, wallet_fingerprint, wallet_encrypted, short_term_rate::text, long_term_rate::text,
		processed_count, skipped_count, summary, created_at
		FROM tax_reports WHERE wallet_fingerprint = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, fingerprint, limit)
	if err != nil {
		return nil, fmt.Errorf("list tax reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.TaxReport{}
	for rows.Next() {
		var (
			rep                 domain.TaxReport
			shortRate, longRate string
			summary             []byte
		)
		if err := rows.Scan(
			&rep.ID, &rep.WalletFingerprint, &rep.WalletEncrypted, &shortRate, &longRate,
			&rep.ProcessedCount, &rep.SkippedCount, &summary, &rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tax report: %w", err)
		}

		if rep.Rates.ShortTerm, err = decimal.NewFromString(shortRate); err != nil {
			return nil, fmt.Errorf("parse short_term_rate: %w", err)
		}
		if rep.Rates.LongTerm, err = decimal.NewFromString(longRate); err != nil {
			return nil, fmt.Errorf("parse long_term_rate: %w", err)
		}
		if err := json.Unmarshal(summary, &rep.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal report summary: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tax reports: %w", err)
	}
	return reports, nil
}
