package payroll

import (
	"fmt"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Cascade names the derived-field recomputation requested with an adjustment edit.
type Cascade string

const (
	CascadeNone        Cascade = "none"
	CascadeDailyRate   Cascade = "daily_rate"
	CascadeHolidayDays Cascade = "holiday_days"
)

func (c Cascade) IsValid() bool {
	return c == "" || c == CascadeNone || c == CascadeDailyRate || c == CascadeHolidayDays
}

const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

// validatePeriod checks both dates and their ordering. Ordering is checked
// here because the calculators never validate it.
func validatePeriod(start, end string, errs validator.ValidationErrors) (Period, validator.ValidationErrors) {
	startDate, okStart := validator.IsValidDate(start)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "start", Message: "must be a date in YYYY-MM-DD format"})
	}
	endDate, okEnd := validator.IsValidDate(end)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "end", Message: "must be a date in YYYY-MM-DD format"})
	}
	if okStart && okEnd && endDate.Before(startDate) {
		errs = append(errs, validator.ValidationError{Field: "end", Message: "must not be before start"})
	}
	return Period{Start: startDate, End: endDate}, errs
}

func validateRegime(regime string, errs validator.ValidationErrors) validator.ValidationErrors {
	if !person.Regime(regime).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "regime", Message: "must be 'worker' or 'staff'"})
	}
	return errs
}

// Bounds of a paginated run request.
const (
	MaxRunPage  = 100_000
	MaxRunLimit = 10_000
)

type RunRequest struct {
	Regime      string `json:"regime"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	Recalculate bool   `json:"recalculate"`

	period Period
}

func (r *RunRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = validateRegime(r.Regime, errs)
	r.period, errs = validatePeriod(r.Start, r.End, errs)
	if r.Page < 1 || r.Page > MaxRunPage {
		errs = append(errs, validator.ValidationError{Field: "page", Message: fmt.Sprintf("must be between 1 and %d", MaxRunPage)})
	}
	if r.Limit < 1 || r.Limit > MaxRunLimit {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxRunLimit)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns the parsed period; valid only after Validate succeeded.
func (r *RunRequest) Period() Period { return r.period }

// Offset is the number of persons before the requested page. Validate bounds
// page and limit so it cannot overflow.
func (r *RunRequest) Offset() int { return (r.Page - 1) * r.Limit }

type ExportRequest struct {
	Regime string `json:"regime"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Format string `json:"format"`

	period Period
}

func (r *ExportRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = validateRegime(r.Regime, errs)
	r.period, errs = validatePeriod(r.Start, r.End, errs)
	if r.Format == "" {
		r.Format = ExportFormatJSON
	}
	if !validator.IsInSlice(r.Format, []string{ExportFormatJSON, ExportFormatCSV}) {
		errs = append(errs, validator.ValidationError{Field: "format", Message: ErrInvalidExportFormat.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *ExportRequest) Period() Period { return r.period }

type PersonPeriodRequest struct {
	Regime   string `json:"regime"`
	PersonID int64  `json:"person_id"`
	Start    string `json:"start"`
	End      string `json:"end"`

	period Period
}

func (r *PersonPeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = validateRegime(r.Regime, errs)
	if r.PersonID <= 0 {
		errs = append(errs, validator.ValidationError{Field: "person_id", Message: "must be a positive integer"})
	}
	r.period, errs = validatePeriod(r.Start, r.End, errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *PersonPeriodRequest) Period() Period { return r.period }

type SaveAdjustmentRequest struct {
	PersonPeriodRequest
	Overrides Adjustment `json:"overrides"`
	Cascade   Cascade    `json:"cascade"`
	UpdatedBy *string    `json:"-"`
}

func (r *SaveAdjustmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if err := r.PersonPeriodRequest.Validate(); err != nil {
		errs = append(errs, err.(validator.ValidationErrors)...)
	}
	if !r.Cascade.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "cascade", Message: "must be 'none', 'daily_rate' or 'holiday_days'"})
	}
	if r.Cascade == CascadeDailyRate && r.Overrides.DailyRate == nil {
		errs = append(errs, validator.ValidationError{Field: "overrides.daily_rate", Message: "is required for the daily_rate cascade"})
	}
	if r.Cascade == CascadeHolidayDays && r.Overrides.WorkedHolidayDays == nil {
		errs = append(errs, validator.ValidationError{Field: "overrides.worked_holiday_days", Message: "is required for the holiday_days cascade"})
	}
	if r.Overrides.WorkedHolidayDays != nil && *r.Overrides.WorkedHolidayDays < 0 {
		errs = append(errs, validator.ValidationError{Field: "overrides.worked_holiday_days", Message: "must be non-negative"})
	}
	if r.Overrides.UnworkedHolidays != nil && *r.Overrides.UnworkedHolidays < 0 {
		errs = append(errs, validator.ValidationError{Field: "overrides.unworked_holidays", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentResponse struct {
	ID        string            `json:"id"`
	Key       string            `json:"key"`
	Regime    person.Regime     `json:"regime"`
	PersonID  int64             `json:"person_id"`
	Start     string            `json:"start"`
	End       string            `json:"end"`
	Overrides Adjustment        `json:"overrides"`
	UpdatedBy *string           `json:"updated_by,omitempty"`
	UpdatedAt string            `json:"updated_at"`
	Result    CalculationResult `json:"result"`
}

// ExportRow is one line of the payroll register download.
type ExportRow struct {
	Regime         string `csv:"regime"`
	PersonID       int64  `csv:"person_id"`
	FullName       string `csv:"full_name"`
	DocumentType   string `csv:"document_type"`
	DocumentNumber string `csv:"document_number"`
	Category       string `csv:"category"`
	DaysWorked     int    `csv:"days_worked"`
	Lines
	PensionLabel   string          `csv:"pension_label"`
	Pension        decimal.Decimal `csv:"pension"`
	Conafovicer    decimal.Decimal `csv:"conafovicer"`
	Advances       decimal.Decimal `csv:"advances"`
	TotalIncome    decimal.Decimal `csv:"total_income"`
	TotalDiscounts decimal.Decimal `csv:"total_discounts"`
	NetPay         decimal.Decimal `csv:"net_pay"`
	Essalud        decimal.Decimal `csv:"essalud"`
	Adjusted       bool            `csv:"adjusted"`
}

func NewExportRow(r CalculationResult) ExportRow {
	return ExportRow{
		Regime:         string(r.Regime),
		PersonID:       r.PersonID,
		FullName:       r.FullName,
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
		Category:       r.Category,
		DaysWorked:     r.DaysWorked,
		Lines:          r.Details.Lines,
		PensionLabel:   r.Details.Pension.Label,
		Pension:        r.Details.Pension.Amount,
		Conafovicer:    r.Details.Conafovicer,
		Advances:       r.Details.Advances,
		TotalIncome:    r.TotalIncome,
		TotalDiscounts: r.TotalDiscounts,
		NetPay:         r.NetPay,
		Essalud:        r.Details.Essalud,
		Adjusted:       r.Adjusted,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func NewAdjustmentResponse(rec AdjustmentRecord, result CalculationResult) AdjustmentResponse {
	return AdjustmentResponse{
		ID:        rec.ID,
		Key:       rec.Key(),
		Regime:    rec.Regime,
		PersonID:  rec.PersonID,
		Start:     rec.PeriodStart.Format(dateLayout),
		End:       rec.PeriodEnd.Format(dateLayout),
		Overrides: rec.Overrides,
		UpdatedBy: rec.UpdatedBy,
		UpdatedAt: formatTimestamp(rec.UpdatedAt),
		Result:    result,
	}
}
