package service

import (
	"context"
	"errors"
	"fmt"

	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/pkg/apperror"

	"github.com/rs/zerolog"
)

// WalletTaxProcessor turns normalized disposals into a TaxSummary.
// Transactions are handled one at a time in input order; a bad transaction is skipped, never fatal.
type WalletTaxProcessor struct {
	log zerolog.Logger
}

func NewWalletTaxProcessor(log zerolog.Logger) *WalletTaxProcessor {
	return &WalletTaxProcessor{log: log}
}

// Process computes profit and tax for every usable transaction and aggregates the totals.
// The only errors returned are an invalid rate pair (checked before any work) and context cancellation.
func (p *WalletTaxProcessor) Process(
	ctx context.Context,
	txs []domain.Transaction,
	resolver ports.PriceResolver,
	rates domain.TaxRates,
) (*domain.TaxSummary, error) {
	if err := ValidateRates(rates); err != nil {
		return nil, err
	}

	summary := domain.NewTaxSummary()
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("processing transactions: %w", err)
		}

		result, err := p.processOne(ctx, &txs[i], resolver, rates)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("processing transactions: %w", ctxErr)
			}
			p.skip(summary, txs[i].Signature, err)
			continue
		}
		summary.Add(*result)
	}

	p.log.Info().
		Int("processed", len(summary.Results)).
		Int("skipped", len(summary.Skipped)).
		Str("total_profit", summary.TotalProfit.String()).
		Str("total_tax", summary.TotalTax.String()).
		Msg("tax summary computed")

	return summary, nil
}

func (p *WalletTaxProcessor) processOne(
	ctx context.Context,
	tx *domain.Transaction,
	resolver ports.PriceResolver,
	rates domain.TaxRates,
) (*domain.TransactionResult, error) {
	if field := tx.MissingField(); field != "" {
		return nil, apperror.ErrMissingField(field)
	}

	purchasePrice, err := resolver.Resolve(ctx, tx.TokenSymbol, *tx.PurchaseTime)
	if err != nil {
		return nil, fmt.Errorf("resolving purchase price: %w", err)
	}
	sellPrice, err := resolver.Resolve(ctx, tx.TokenSymbol, *tx.SellTime)
	if err != nil {
		return nil, fmt.Errorf("resolving sell price: %w", err)
	}

	profit := sellPrice.Sub(purchasePrice).Mul(*tx.Amount)

	days, err := HoldingPeriodDays(*tx.PurchaseTime, *tx.SellTime)
	if err != nil {
		return nil, err
	}

	tax, err := TaxOwed(profit, days, rates)
	if err != nil {
		return nil, err
	}

	return &domain.TransactionResult{
		Signature:         tx.Signature,
		TokenSymbol:       domain.NormalizeSymbol(tx.TokenSymbol),
		Amount:            *tx.Amount,
		PurchaseTime:      *tx.PurchaseTime,
		SellTime:          *tx.SellTime,
		PurchasePrice:     purchasePrice,
		SellPrice:         sellPrice,
		Profit:            profit,
		HoldingPeriodDays: days,
		Classification:    Classify(days),
		Tax:               tax,
	}, nil
}

func (p *WalletTaxProcessor) skip(summary *domain.TaxSummary, signature string, err error) {
	code := apperror.CodeInternal
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}

	p.log.Warn().
		Err(err).
		Str("signature", signature).
		Str("code", code).
		Msg("transaction skipped")

	summary.Skip(signature, code, err.Error())
}
