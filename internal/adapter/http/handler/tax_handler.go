package handler

import (
	"vertax/internal/adapter/http/dto"
	"vertax/internal/core/domain"
	"vertax/internal/core/ports"
	"vertax/pkg/response"

	"github.com/gin-gonic/gin"
)

// TaxHandler serves the stateless calculation endpoints.
type TaxHandler struct {
	svc      ports.TaxReportService
	defaults domain.TaxRates
}

// NewTaxHandler creates a new TaxHandler. defaults apply when a request omits a rate.
func NewTaxHandler(svc ports.TaxReportService, defaults domain.TaxRates) *TaxHandler {
	return &TaxHandler{svc: svc, defaults: defaults}
}

// Calculate handles POST /api/v1/tax/calculate.
func (h *TaxHandler) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	rates, err := req.Apply(h.defaults)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.svc.Calculate(c.Request.Context(), req.Transactions, rates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToSummaryResponse(summary))
}

// Estimate handles POST /api/v1/tax/estimate.
func (h *TaxHandler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	dto.SanitizeStruct(&req)

	rates, err := req.Apply(h.defaults)
	if err != nil {
		response.Error(c, err)
		return
	}

	estimate, err := h.svc.Estimate(req.Profit.String(), *req.HoldingPeriodDays, rates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToEstimateResponse(estimate))
}
