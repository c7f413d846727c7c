package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"vertax/internal/adapter/http/dto"
	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/pkg/apperror"
	"vertax/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves wallet reports and their history.
type ReportHandler struct {
	svc       ports.TaxReportService
	defaults  domain.TaxRates
	renderers map[string]ports.ReportRenderer
}

// NewReportHandler creates a new ReportHandler. renderers maps a ?format= value to its artifact renderer.
func NewReportHandler(svc ports.TaxReportService, defaults domain.TaxRates, renderers map[string]ports.ReportRenderer) *ReportHandler {
	return &ReportHandler{svc: svc, defaults: defaults, renderers: renderers}
}

// Generate handles POST /api/v1/wallets/:address/report.
// The body is optional and may only carry a rate override.
func (h *ReportHandler) Generate(c *gin.Context) {
	address, ok := walletParam(c)
	if !ok {
		return
	}

	var renderer ports.ReportRenderer
	if format := c.Query("format"); format != "" && format != "json" {
		renderer, ok = h.renderers[format]
		if !ok {
			response.Error(c, apperror.Validation(fmt.Sprintf("unsupported report format %q", format)))
			return
		}
	}

	var req dto.RatesRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	rates, err := req.Apply(h.defaults)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.svc.GenerateWalletReport(c.Request.Context(), address, rates)
	if err != nil {
		response.Error(c, err)
		return
	}

	if renderer == nil {
		response.OK(c, dto.ToReportResponse(report))
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="tax-report-%s.%s"`, report.ID, c.Query("format")))
	c.Data(http.StatusOK, renderer.ContentType(), buf.Bytes())
}

// List handles GET /api/v1/wallets/:address/reports.
func (h *ReportHandler) List(c *gin.Context) {
	address, ok := walletParam(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	reports, err := h.svc.ListReports(c.Request.Context(), address, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToReportListResponse(reports))
}

func walletParam(c *gin.Context) (string, bool) {
	address := c.Param("address")
	if !dto.IsSolanaAddress(address) {
		response.Error(c, apperror.Validation("invalid wallet address"))
		return "", false
	}
	return address, true
}
