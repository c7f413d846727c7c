package ports

import (
	"context"
	"io"
	"time"

	"vertax/internal/core/domain"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

// PriceProvider is one historical price source. Implementations return
// apperror.ErrProviderUnavailable on transport failure, malformed data or an uncovered token/date.
type PriceProvider interface {
	Name() string
	// FetchPrice returns the USD price of symbol on the UTC calendar day of date.
	FetchPrice(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error)
}

// PriceResolver returns the daily price of a token at a unix timestamp.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string, ts int64) (decimal.Decimal, error)
}

// TransactionSource lists the raw transaction history of a wallet.
// Transport failures are logged by the source and yield an empty slice.
type TransactionSource interface {
	FetchTransactions(ctx context.Context, wallet string) []domain.RawTransaction
}

// TransactionNormalizer turns a raw record into a canonical disposal, or reports it absent.
type TransactionNormalizer interface {
	Normalize(raw domain.RawTransaction) (domain.Transaction, bool)
}

// ReportRenderer writes a report artifact.
type ReportRenderer interface {
	ContentType() string
	Render(w io.Writer, report *domain.TaxReport) error
}

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// --- Service Ports (Business Logic) ---

// TaxReportService is the wallet-level pipeline exposed to the HTTP API and the CLI.
type TaxReportService interface {
	GenerateWalletReport(ctx context.Context, wallet string, rates domain.TaxRates) (*domain.TaxReport, error)
	Calculate(ctx context.Context, raws []domain.RawTransaction, rates domain.TaxRates) (*domain.TaxSummary, error)
	ListReports(ctx context.Context, wallet string, limit int) ([]domain.TaxReport, error)
	Estimate(profit string, holdingPeriodDays int64, rates domain.TaxRates) (*TaxEstimate, error)
}

// TaxEstimate is the result of a single what-if computation.
type TaxEstimate struct {
	Profit            decimal.Decimal
	HoldingPeriodDays int64
	Classification    domain.HoldingClassification
	Rate              decimal.Decimal
	Tax               decimal.Decimal
}
