package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vertax/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportColumns = []string{
	"id", "wallet_fingerprint", "wallet_encrypted", "short_term_rate", "long_term_rate",
	"processed_count", "skipped_count", "summary", "created_at",
}

func sampleReport() *domain.TaxReport {
	summary := domain.NewTaxSummary()
	summary.Add(domain.TransactionResult{
		Signature:   "sig1",
		TokenSymbol: "SOL",
		Profit:      decimal.RequireFromString("100.5"),
		Tax:         decimal.RequireFromString("25.125"),
	})
	return &domain.TaxReport{
		ID:                uuid.New(),
		WalletFingerprint: "fp",
		WalletEncrypted:   "deadbeef",
		Rates:             domain.TaxRates{ShortTerm: decimal.RequireFromString("0.25"), LongTerm: decimal.RequireFromString("0.15")},
		Summary:           *summary,
		ProcessedCount:    1,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestReportRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReportRepo(mock)
	rep := sampleReport()
	summary, err := json.Marshal(rep.Summary)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO tax_reports").
		WithArgs(rep.ID, "fp", "deadbeef", "0.25", "0.15", "100.5", "25.125", 1, 0, summary, rep.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), rep))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepo_Create_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReportRepo(mock)
	rep := sampleReport()
	summary, err := json.Marshal(rep.Summary)
	require.NoError(t, err)

	dbErr := errors.New("duplicate key")
	mock.ExpectExec("INSERT INTO tax_reports").
		WithArgs(rep.ID, "fp", "deadbeef", "0.25", "0.15", "100.5", "25.125", 1, 0, summary, rep.CreatedAt).
		WillReturnError(dbErr)

	err = repo.Create(context.Background(), rep)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "insert tax report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReportRepo(mock)
	rep := sampleReport()
	summary, err := json.Marshal(rep.Summary)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .+ FROM tax_reports WHERE wallet_fingerprint").
		WithArgs("fp", 5).
		WillReturnRows(pgxmock.NewRows(reportColumns).
			AddRow(rep.ID, "fp", "deadbeef", "0.25", "0.15", 1, 0, summary, rep.CreatedAt))

	reports, err := repo.ListByWallet(context.Background(), "fp", 5)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	got := reports[0]
	assert.Equal(t, rep.ID, got.ID)
	assert.True(t, got.Rates.ShortTerm.Equal(rep.Rates.ShortTerm))
	assert.True(t, got.Rates.LongTerm.Equal(rep.Rates.LongTerm))
	assert.True(t, got.Summary.TotalProfit.Equal(decimal.RequireFromString("100.5")))
	assert.True(t, got.Summary.TotalTax.Equal(decimal.RequireFromString("25.125")))
	require.Len(t, got.Summary.Results, 1)
	assert.Equal(t, "sig1", got.Summary.Results[0].Signature)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepo_ListByWallet_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReportRepo(mock)
	mock.ExpectQuery("SELECT .+ FROM tax_reports WHERE wallet_fingerprint").
		WithArgs("unknown", 20).
		WillReturnRows(pgxmock.NewRows(reportColumns))

	reports, err := repo.ListByWallet(context.Background(), "unknown", 20)
	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepo_ListByWallet_BadRate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReportRepo(mock)
	mock.ExpectQuery("SELECT .+ FROM tax_reports").
		WithArgs("fp", 5).
		WillReturnRows(pgxmock.NewRows(reportColumns).
			AddRow(uuid.New(), "fp", "x", "NaN", "0.15", 0, 0, []byte(`{}`), time.Now()))

	_, err = repo.ListByWallet(context.Background(), "fp", 5)
	assert.Error(t, err)
}

func TestReportRepo_ListByWallet_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReportRepo(mock)
	mock.ExpectQuery("SELECT .+ FROM tax_reports").WillReturnError(errors.New("timeout"))

	_, err = repo.ListByWallet(context.Background(), "fp", 5)
	assert.Error(t, err)
}
