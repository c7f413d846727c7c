package ports

import (
	"context"
	"time"

	"vertax/internal/core/domain"
)

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// ReportRepository persists generated tax reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.TaxReport) error
	// ListByWallet returns the newest reports first.
	ListByWallet(ctx context.Context, fingerprint string, limit int) ([]domain.TaxReport, error)
}

// ReportCache is the Redis-layer cache of serialized reports.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached report JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
