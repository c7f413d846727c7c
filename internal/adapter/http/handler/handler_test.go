package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vertax/internal/adapter/render"
	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/internal/core/ports/mocks"
	"vertax/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func init() {
	gin.SetMode(gin.TestMode)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var defaultRates = domain.TaxRates{ShortTerm: dec("0.25"), LongTerm: dec("0.15")}

func ratesEq(short, long string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		r, ok := x.(domain.TaxRates)
		return ok && r.ShortTerm.Equal(dec(short)) && r.LongTerm.Equal(dec(long))
	})
}

func newTestRouter(svc ports.TaxReportService, checkers ...ports.HealthChecker) *gin.Engine {
	return SetupRouter(RouterDeps{
		ReportSvc:      svc,
		DefaultRates:   defaultRates,
		Renderers:      map[string]ports.ReportRenderer{"csv": render.NewCSVRenderer()},
		HealthCheckers: checkers,
		Mode:           gin.TestMode,
		Logger:         zerolog.Nop(),
	})
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response should carry a data object: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

func sampleSummary() *domain.TaxSummary {
	s := domain.NewTaxSummary()
	s.Add(domain.TransactionResult{
		Signature:         "sig1",
		TokenSymbol:       "SOL",
		Amount:            dec("10"),
		PurchaseTime:      1672531200,
		SellTime:          1675209600,
		PurchasePrice:     dec("10"),
		SellPrice:         dec("25"),
		Profit:            dec("150"),
		HoldingPeriodDays: 31,
		Classification:    domain.ShortTerm,
		Tax:               dec("37.5"),
	})
	s.Skip("sig2", apperror.CodePriceUnavailable, "price unavailable")
	return s
}

func sampleReport() *domain.TaxReport {
	s := sampleSummary()
	return &domain.TaxReport{
		ID:                uuid.MustParse("6f1c1d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f"),
		WalletFingerprint: "fp",
		Rates:             defaultRates,
		Summary:           *s,
		ProcessedCount:    1,
		SkippedCount:      1,
		CreatedAt:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// --- Calculate ---

func TestCalculate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		Calculate(gomock.Any(), gomock.Len(1), ratesEq("0.25", "0.15")).
		DoAndReturn(func(_ any, raws []domain.RawTransaction, _ domain.TaxRates) (*domain.TaxSummary, error) {
			assert.Equal(t, "sig1", raws[0].Signature)
			assert.Equal(t, "SOL", raws[0].TokenSymbol)
			return sampleSummary(), nil
		})

	body := `{"transactions":[{"signature":"sig1","token_symbol":"SOL","amount":"10","purchase_time":1672531200,"sell_time":1675209600}]}`
	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/calculate", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "150", data["total_profit"])
	assert.Equal(t, "37.5", data["total_tax"])
	assert.Equal(t, float64(1), data["processed_count"])
	assert.Equal(t, float64(1), data["skipped_count"])
}

func TestCalculate_RateOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		Calculate(gomock.Any(), gomock.Len(0), ratesEq("0.3", "0.15")).
		Return(domain.NewTaxSummary(), nil)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/calculate", `{"transactions":[],"short_term_rate":"0.3"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "0", data["total_profit"])
	assert.Equal(t, "0", data["total_tax"])
}

func TestCalculate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"transactions":`},
		{"missing transactions", `{}`},
		{"non numeric rate", `{"transactions":[],"long_term_rate":"high"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockTaxReportService(ctrl)

			w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/calculate", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apperror.CodeValidation, errorCode(t, w))
		})
	}
}

func TestCalculate_InvalidRateFromService(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		Calculate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInvalidRate("short_term_rate must be within [0, 1]"))

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/calculate", `{"transactions":[],"short_term_rate":"1.5"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeInvalidRate, errorCode(t, w))
}

func TestCalculate_PayloadTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	var b strings.Builder
	b.WriteString(`{"transactions":[`)
	for b.Len() < 5<<20 {
		b.WriteString(`{"signature":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},`)
	}
	b.WriteString(`{}]}`)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/calculate", b.String())

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, apperror.CodePayloadSize, errorCode(t, w))
}

// --- Estimate ---

func TestEstimate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		Estimate("1000", int64(400), ratesEq("0.25", "0.15")).
		Return(&ports.TaxEstimate{
			Profit:            dec("1000"),
			HoldingPeriodDays: 400,
			Classification:    domain.LongTerm,
			Rate:              dec("0.15"),
			Tax:               dec("150"),
		}, nil)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/estimate", `{"profit":1000,"holding_period_days":400}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "long_term", data["classification"])
	assert.Equal(t, "0.15", data["rate"])
	assert.Equal(t, "150", data["tax"])
}

func TestEstimate_ProfitAsString(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		Estimate("-50.25", int64(0), ratesEq("0.2", "0.1")).
		Return(&ports.TaxEstimate{
			Profit:         dec("-50.25"),
			Classification: domain.ShortTerm,
			Rate:           dec("0.2"),
			Tax:            dec("-10.05"),
		}, nil)

	body := `{"profit":"-50.25","holding_period_days":0,"short_term_rate":"0.2","long_term_rate":"0.1"}`
	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/estimate", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "-10.05", decodeData(t, w)["tax"])
}

func TestEstimate_MissingHoldingPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/estimate", `{"profit":100}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEstimate_NonFiniteProfit(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/estimate", `{"profit":"NaN","holding_period_days":3}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEstimate_NegativeHoldingPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		Estimate("10", int64(-1), gomock.Any()).
		Return(nil, apperror.ErrInvalidOrdering())

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/tax/estimate", `{"profit":10,"holding_period_days":-1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInvalidOrdering, errorCode(t, w))
}

// --- Wallet reports ---

func TestGenerateReport_JSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		GenerateWalletReport(gomock.Any(), testWallet, ratesEq("0.25", "0.15")).
		Return(sampleReport(), nil)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/"+testWallet+"/report", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeData(t, w)
	assert.Equal(t, "6f1c1d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f", data["id"])
	assert.Equal(t, "2024-03-01T12:00:00Z", data["created_at"])
	summary := data["summary"].(map[string]any)
	assert.Equal(t, "37.5", summary["total_tax"])
	assert.NotContains(t, w.Body.String(), testWallet)
}

func TestGenerateReport_RateOverrideBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		GenerateWalletReport(gomock.Any(), testWallet, ratesEq("0.25", "0.05")).
		Return(sampleReport(), nil)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/"+testWallet+"/report", `{"long_term_rate":"0.05"}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGenerateReport_ChunkedEmptyBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		GenerateWalletReport(gomock.Any(), testWallet, ratesEq("0.25", "0.15")).
		Return(sampleReport(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/"+testWallet+"/report", nil)
	req.Body = io.NopCloser(strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGenerateReport_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/"+testWallet+"/report", `{"long_term_rate":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, errorCode(t, w))
}

func TestGenerateReport_CSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		GenerateWalletReport(gomock.Any(), testWallet, gomock.Any()).
		Return(sampleReport(), nil)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/"+testWallet+"/report?format=csv", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tax-report-6f1c1d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f.csv")

	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "sig1", rows[1][0])
	assert.Equal(t, "TOTAL", rows[3][0])
}

func TestGenerateReport_UnsupportedFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/"+testWallet+"/report?format=pdf", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, errorCode(t, w))
}

func TestGenerateReport_InvalidAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/not-a-wallet/report", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateReport_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		GenerateWalletReport(gomock.Any(), testWallet, gomock.Any()).
		Return(nil, apperror.ErrStorage(errors.New("pg down")))

	w := doJSON(newTestRouter(svc), http.MethodPost, "/api/v1/wallets/"+testWallet+"/report", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeStorage, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "pg down")
}

func TestListReports(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().
		ListReports(gomock.Any(), testWallet, 5).
		Return([]domain.TaxReport{*sampleReport()}, nil)

	w := doJSON(newTestRouter(svc), http.MethodGet, "/api/v1/wallets/"+testWallet+"/reports?limit=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["count"])
	reports := data["reports"].([]any)
	first := reports[0].(map[string]any)
	assert.Equal(t, "150", first["total_profit"])
	assert.Equal(t, "0.25", first["short_term_rate"])
}

func TestListReports_DefaultLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	svc.EXPECT().ListReports(gomock.Any(), testWallet, 0).Return(nil, nil)

	w := doJSON(newTestRouter(svc), http.MethodGet, "/api/v1/wallets/"+testWallet+"/reports", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeData(t, w)["count"])
}

func TestListReports_InvalidLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockTaxReportService(ctrl)

	for _, limit := range []string{"abc", "0", "-3"} {
		w := doJSON(newTestRouter(svc), http.MethodGet, "/api/v1/wallets/"+testWallet+"/reports?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
}

// --- Health ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	pg := mocks.NewMockHealthChecker(ctrl)
	rpc := mocks.NewMockHealthChecker(ctrl)

	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgres")
	rpc.EXPECT().Ping(gomock.Any()).Return(nil)
	rpc.EXPECT().Name().Return("solana_rpc")

	w := doJSON(newTestRouter(mocks.NewMockTaxReportService(ctrl), pg, rpc), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	deps := resp["dependencies"].(map[string]any)
	assert.Contains(t, deps, "postgres")
	assert.Contains(t, deps, "solana_rpc")
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	redis := mocks.NewMockHealthChecker(ctrl)

	redis.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	redis.EXPECT().Name().Return("report_cache")

	w := doJSON(newTestRouter(mocks.NewMockTaxReportService(ctrl), redis), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	dep := resp["dependencies"].(map[string]any)["report_cache"].(map[string]any)
	assert.Equal(t, "unhealthy", dep["status"])
	assert.Equal(t, "connection refused", dep["error"])
}

func TestRouter_RequestIDHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := doJSON(newTestRouter(mocks.NewMockTaxReportService(ctrl)), http.MethodGet, "/health", "")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
