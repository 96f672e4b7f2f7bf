package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/handler/http/middleware"
	"github.com/obraplan/payroll-backend-go/internal/handler/http/response"
	"github.com/obraplan/payroll-backend-go/internal/pkg/validator"
)

type PayrollHandler interface {
	// Runs
	ComputeRun(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)

	// Adjustments
	GetAdjustment(w http.ResponseWriter, r *http.Request)
	SaveAdjustment(w http.ResponseWriter, r *http.Request)
	DeleteAdjustment(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService  payroll.PayrollService
	defaultPageSize int
}

func NewPayrollHandler(payrollService payroll.PayrollService, defaultPageSize int) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService, defaultPageSize: defaultPageSize}
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// personPeriod reads the regime and person from the path and the period from
// the query string.
func personPeriod(r *http.Request) (payroll.PersonPeriodRequest, error) {
	raw := chi.URLParam(r, "personId")
	if !validator.IsNumeric(raw) {
		return payroll.PersonPeriodRequest{}, fmt.Errorf("person ID must be an integer")
	}
	personID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return payroll.PersonPeriodRequest{}, fmt.Errorf("person ID is out of range")
	}
	return payroll.PersonPeriodRequest{
		Regime:   chi.URLParam(r, "regime"),
		PersonID: personID,
		Start:    r.URL.Query().Get("start"),
		End:      r.URL.Query().Get("end"),
	}, nil
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) ComputeRun(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}
	limit, err := queryInt(r, "limit", h.defaultPageSize)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	req := payroll.RunRequest{
		Regime:      chi.URLParam(r, "regime"),
		Start:       r.URL.Query().Get("start"),
		End:         r.URL.Query().Get("end"),
		Page:        page,
		Limit:       limit,
		Recalculate: r.URL.Query().Get("recalculate") == "true",
	}

	run, err := h.payrollService.ComputeRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, run, response.NewMeta(run.Page, run.Limit, run.TotalCount))
}

func (h *payrollHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	req := payroll.ExportRequest{
		Regime: chi.URLParam(r, "regime"),
		Start:  r.URL.Query().Get("start"),
		End:    r.URL.Query().Get("end"),
		Format: r.URL.Query().Get("format"),
	}

	if req.Format != payroll.ExportFormatCSV {
		run, err := h.payrollService.ComputeFullExport(r.Context(), req)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, run)
		return
	}

	// Buffer the CSV so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.payrollService.WriteExportCSV(r.Context(), req, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("planilla_%s_%s_%s.csv", req.Regime, req.Start, req.End)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	req, err := personPeriod(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	result, err := h.payrollService.GetPayslip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== ADJUSTMENTS ==========

func (h *payrollHandlerImpl) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	req, err := personPeriod(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	result, err := h.payrollService.GetAdjustment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) SaveAdjustment(w http.ResponseWriter, r *http.Request) {
	target, err := personPeriod(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	var req payroll.SaveAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.PersonPeriodRequest = target
	req.UpdatedBy = middleware.UserID(r)

	result, err := h.payrollService.SaveAdjustment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll adjustment saved", result)
}

func (h *payrollHandlerImpl) DeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	req, err := personPeriod(r)
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	if err := h.payrollService.DeleteAdjustment(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll adjustment deleted", nil)
}
