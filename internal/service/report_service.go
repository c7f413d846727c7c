package service

import (
	"context"
	"encoding/json"
	"time"

	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/pkg/apperror"
	"vertax/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResolverFactory builds a fresh PriceResolver for one processing run.
type ResolverFactory func() ports.PriceResolver

// ReportOptions tunes the report cache and history lookups.
type ReportOptions struct {
	CacheTTL     time.Duration
	HistoryLimit int
}

// reportService implements ports.TaxReportService.
// repo and cache may be nil, in which case reports are neither stored nor cached.
type reportService struct {
	source      ports.TransactionSource
	normalizer  ports.TransactionNormalizer
	processor   *WalletTaxProcessor
	newResolver ResolverFactory
	protector   *WalletProtector
	repo        ports.ReportRepository
	cache       ports.ReportCache
	opts        ReportOptions
	log         zerolog.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	source ports.TransactionSource,
	normalizer ports.TransactionNormalizer,
	processor *WalletTaxProcessor,
	newResolver ResolverFactory,
	protector *WalletProtector,
	repo ports.ReportRepository,
	cache ports.ReportCache,
	opts ReportOptions,
	log zerolog.Logger,
) ports.TaxReportService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &reportService{
		source:      source,
		normalizer:  normalizer,
		processor:   processor,
		newResolver: newResolver,
		protector:   protector,
		repo:        repo,
		cache:       cache,
		opts:        opts,
		log:         log,
	}
}

// GenerateWalletReport runs the full pipeline for a wallet: fetch, normalize, price, tax, store.
func (s *reportService) GenerateWalletReport(ctx context.Context, wallet string, rates domain.TaxRates) (*domain.TaxReport, error) {
	if wallet == "" {
		return nil, apperror.Validation("wallet address is required")
	}
	if err := ValidateRates(rates); err != nil {
		return nil, err
	}

	log := s.log.With().Str("wallet", logger.MaskAddress(wallet)).Logger()

	fingerprint, encrypted, err := s.protector.Protect(wallet)
	if err != nil {
		return nil, err
	}
	cacheKey := domain.BuildReportCacheKey(fingerprint, rates)

	if cached := s.cachedReport(ctx, cacheKey, log); cached != nil {
		return cached, nil
	}

	raws := s.source.FetchTransactions(ctx, wallet)
	txs := s.normalizeAll(raws)
	log.Info().Int("raw", len(raws)).Int("normalized", len(txs)).Msg("wallet transactions loaded")

	summary, err := s.processor.Process(ctx, txs, s.newResolver(), rates)
	if err != nil {
		return nil, err
	}

	report := &domain.TaxReport{
		ID:                uuid.New(),
		WalletFingerprint: fingerprint,
		WalletEncrypted:   encrypted,
		Rates:             rates,
		Summary:           *summary,
		ProcessedCount:    len(summary.Results),
		SkippedCount:      len(summary.Skipped),
		CreatedAt:         time.Now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, report); err != nil {
			return nil, apperror.ErrStorage(err)
		}
	}

	s.cacheReport(ctx, cacheKey, report, log)
	return report, nil
}

// Calculate prices and taxes caller-supplied records without touching storage.
func (s *reportService) Calculate(ctx context.Context, raws []domain.RawTransaction, rates domain.TaxRates) (*domain.TaxSummary, error) {
	return s.processor.Process(ctx, s.normalizeAll(raws), s.newResolver(), rates)
}

// ListReports returns stored report summaries for a wallet, newest first.
func (s *reportService) ListReports(ctx context.Context, wallet string, limit int) ([]domain.TaxReport, error) {
	if wallet == "" {
		return nil, apperror.Validation("wallet address is required")
	}
	if s.repo == nil {
		return []domain.TaxReport{}, nil
	}
	if limit <= 0 || limit > s.opts.HistoryLimit {
		limit = s.opts.HistoryLimit
	}

	reports, err := s.repo.ListByWallet(ctx, s.protector.Fingerprint(wallet), limit)
	if err != nil {
		return nil, apperror.ErrStorage(err)
	}
	return reports, nil
}

// Estimate computes the tax of a single hypothetical disposal.
func (s *reportService) Estimate(profit string, holdingPeriodDays int64, rates domain.TaxRates) (*ports.TaxEstimate, error) {
	if holdingPeriodDays < 0 {
		return nil, apperror.ErrInvalidOrdering()
	}
	p, err := ParseProfit(profit)
	if err != nil {
		return nil, err
	}
	tax, err := TaxOwed(p, holdingPeriodDays, rates)
	if err != nil {
		return nil, err
	}

	class := Classify(holdingPeriodDays)
	return &ports.TaxEstimate{
		Profit:            p,
		HoldingPeriodDays: holdingPeriodDays,
		Classification:    class,
		Rate:              rates.For(class),
		Tax:               tax,
	}, nil
}

func (s *reportService) normalizeAll(raws []domain.RawTransaction) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(raws))
	for _, raw := range raws {
		tx, ok := s.normalizer.Normalize(raw)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}
	return txs
}

func (s *reportService) cachedReport(ctx context.Context, key string, log zerolog.Logger) *domain.TaxReport {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("report cache lookup failed, recomputing")
		return nil
	}
	if data == nil {
		return nil
	}

	var report domain.TaxReport
	if err := json.Unmarshal(data, &report); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable cached report")
		return nil
	}
	log.Debug().Str("report_id", report.ID.String()).Msg("report cache hit")
	return &report
}

func (s *reportService) cacheReport(ctx context.Context, key string, report *domain.TaxReport, log zerolog.Logger) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal report for cache")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		log.Warn().Err(err).Msg("failed to cache report")
	}
}
