package postgres

import (
	"context"
	"errors"
	"fmt"
)

var errReportTableMissing = errors.New("tax_reports table missing, migrations not applied")

// ReportStoreCheck reports the report store unhealthy when the database is unreachable
// or the tax_reports table has not been migrated.
type ReportStoreCheck struct {
	pool Pool
}

// NewHealthCheck creates the report store health checker.
func NewHealthCheck(pool Pool) *ReportStoreCheck {
	return &ReportStoreCheck{pool: pool}
}

// Ping checks that tax_reports is visible to the pool's search path.
func (h *ReportStoreCheck) Ping(ctx context.Context) error {
	var present bool
	if err := h.pool.QueryRow(ctx, "SELECT to_regclass('tax_reports') IS NOT NULL").Scan(&present); err != nil {
		return fmt.Errorf("report store: %w", err)
	}
	if !present {
		return errReportTableMissing
	}
	return nil
}

func (h *ReportStoreCheck) Name() string {
	return "report_store"
}
