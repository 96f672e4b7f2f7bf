package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/handler/http/response"
)

type PayrollConfigHandler interface {
	ListConfig(w http.ResponseWriter, r *http.Request)
	UpdateConfig(w http.ResponseWriter, r *http.Request)
	ListAfpRates(w http.ResponseWriter, r *http.Request)
	UpsertAfpRate(w http.ResponseWriter, r *http.Request)
}

type payrollConfigHandlerImpl struct {
	configService payrollconfig.ConfigService
}

func NewPayrollConfigHandler(configService payrollconfig.ConfigService) PayrollConfigHandler {
	return &payrollConfigHandlerImpl{configService: configService}
}

func (h *payrollConfigHandlerImpl) ListConfig(w http.ResponseWriter, r *http.Request) {
	result, err := h.configService.ListEntries(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollConfigHandlerImpl) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req payrollconfig.UpdateConfigValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.Key = chi.URLParam(r, "key")

	result, err := h.configService.UpdateEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll configuration updated", result)
}

func (h *payrollConfigHandlerImpl) ListAfpRates(w http.ResponseWriter, r *http.Request) {
	result, err := h.configService.ListAfpRates(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollConfigHandlerImpl) UpsertAfpRate(w http.ResponseWriter, r *http.Request) {
	var req payrollconfig.UpsertAfpRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.Provider = chi.URLParam(r, "provider")

	result, err := h.configService.UpsertAfpRate(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "AFP rate updated", result)
}
