package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaxReport is a stored wallet run. The wallet address is only kept encrypted;
// lookups go through its keyed fingerprint.
type TaxReport struct {
	ID                uuid.UUID  `json:"id"`
	WalletFingerprint string     `json:"wallet_fingerprint"`
	WalletEncrypted   string     `json:"-"`
	Rates             TaxRates   `json:"rates"`
	Summary           TaxSummary `json:"summary"`
	ProcessedCount    int        `json:"processed_count"`
	SkippedCount      int        `json:"skipped_count"`
	CreatedAt         time.Time  `json:"created_at"`
}

// BuildReportCacheKey scopes a cached report to the wallet and the rate pair it was computed with.
func BuildReportCacheKey(fingerprint string, rates TaxRates) string {
	return fingerprint + ":" + rates.ShortTerm.String() + ":" + rates.LongTerm.String()
}
