package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/obraplan/payroll-backend-go/internal/domain/advance"
	"github.com/obraplan/payroll-backend-go/internal/domain/attendance"
	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type PayrollServiceImpl struct {
	personRepo     person.PersonRepository
	attendanceRepo attendance.AttendanceRepository
	advanceRepo    advance.AdvanceRepository
	adjustmentRepo payroll.AdjustmentRepository
	configProvider payrollconfig.Provider
	cache          *RunCache
	maxPageSize    int
}

func NewPayrollService(
	personRepo person.PersonRepository,
	attendanceRepo attendance.AttendanceRepository,
	advanceRepo advance.AdvanceRepository,
	adjustmentRepo payroll.AdjustmentRepository,
	configProvider payrollconfig.Provider,
	cache *RunCache,
	maxPageSize int,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		personRepo:     personRepo,
		attendanceRepo: attendanceRepo,
		advanceRepo:    advanceRepo,
		adjustmentRepo: adjustmentRepo,
		configProvider: configProvider,
		cache:          cache,
		maxPageSize:    maxPageSize,
	}
}

// runInputs is everything fetched for one computation, indexed by person.
type runInputs struct {
	persons     []person.Person
	totalCount  int64
	attendance  map[int64][]attendance.Record
	advances    map[int64][]advance.Advance
	snapshot    payrollconfig.Snapshot
	adjustments map[string]payroll.AdjustmentRecord
}

// fetchInputs issues the person, attendance, advance, configuration and
// adjustment reads concurrently. listPersons fills persons and totalCount.
func (s *PayrollServiceImpl) fetchInputs(
	ctx context.Context,
	regime person.Regime,
	period payroll.Period,
	listPersons func(ctx context.Context, in *runInputs) error,
) (*runInputs, error) {
	in := &runInputs{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listPersons(gctx, in)
	})
	g.Go(func() error {
		records, err := s.attendanceRepo.ListByRange(gctx, regime, period.Start, period.End)
		if err != nil {
			return err
		}
		in.attendance = attendance.GroupByPerson(records)
		return nil
	})
	g.Go(func() error {
		advances, err := s.advanceRepo.ListByRange(gctx, regime, period.Start, period.End)
		if err != nil {
			return err
		}
		in.advances = advance.GroupByPerson(advances)
		return nil
	})
	g.Go(func() error {
		snap, err := s.configProvider.Load(gctx)
		if err != nil {
			return err
		}
		in.snapshot = snap
		return nil
	})
	g.Go(func() error {
		adjustments, err := s.adjustmentRepo.ListForPeriod(gctx, regime, period)
		if err != nil {
			return err
		}
		if adjustments == nil {
			adjustments = make(map[string]payroll.AdjustmentRecord)
		}
		in.adjustments = adjustments
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// calculate runs the regime calculator for one person and overlays the stored
// adjustment. Panics are turned into errors so one bad record cannot take the
// whole run down.
func (s *PayrollServiceImpl) calculate(regime person.Regime, p person.Person, in *runInputs) (result payroll.CalculationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", payroll.ErrMalformedPerson, r)
		}
	}()

	if p.ID <= 0 || p.Regime != regime {
		return payroll.CalculationResult{}, payroll.ErrMalformedPerson
	}

	summary := attendance.Aggregate(in.attendance[p.ID])
	var adj payroll.Adjustment
	if rec, ok := in.adjustments[payroll.AdjustmentKey(regime, p.ID)]; ok {
		adj = rec.Overrides
	}

	return Calculate(Input{
		Person:        p,
		DaysWorked:    summary.DaysWorked,
		TotalAdvances: advance.Sum(in.advances[p.ID]),
		Attendance:    summary,
		Adjustment:    adj,
	}, in.snapshot), nil
}

// buildRun calculates every fetched person, skipping and logging the ones
// that fail.
func (s *PayrollServiceImpl) buildRun(regime person.Regime, period payroll.Period, in *runInputs) (payroll.Run, error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return payroll.Run{}, fmt.Errorf("failed to generate run id: %w", err)
	}

	run := payroll.Run{
		RunID:      runID.String(),
		Regime:     regime,
		Start:      period.Start.Format(time.DateOnly),
		End:        period.End.Format(time.DateOnly),
		Records:    make([]payroll.CalculationResult, 0, len(in.persons)),
		TotalCount: in.totalCount,
		ComputedAt: time.Now().UTC(),
	}

	for _, p := range in.persons {
		result, err := s.calculate(regime, p, in)
		if err != nil {
			slog.Warn("Skipping person in payroll run",
				"run_id", run.RunID, "regime", regime, "person_id", p.ID, "error", err)
			run.Skipped = append(run.Skipped, payroll.SkippedPerson{PersonID: p.ID, Reason: err.Error()})
			continue
		}
		run.Records = append(run.Records, result)
		run.Totals = run.Totals.Add(result)
	}

	return run, nil
}

// ComputeRun implements payroll.PayrollService.
func (s *PayrollServiceImpl) ComputeRun(ctx context.Context, req payroll.RunRequest) (payroll.Run, error) {
	if req.Limit > s.maxPageSize && s.maxPageSize > 0 {
		req.Limit = s.maxPageSize
	}
	if err := req.Validate(); err != nil {
		return payroll.Run{}, err
	}

	regime := person.Regime(req.Regime)
	period := req.Period()
	key := runKey(regime, period, req.Page, req.Limit)

	if !req.Recalculate {
		if run, ok := s.cache.Get(key); ok {
			return run, nil
		}
	}

	generation := s.cache.Begin(key, regime, period)

	in, err := s.fetchInputs(ctx, regime, period, func(ctx context.Context, in *runInputs) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			count, err := s.personRepo.CountActive(gctx, regime)
			in.totalCount = count
			return err
		})
		g.Go(func() error {
			persons, err := s.personRepo.ListActive(gctx, regime, req.Limit, req.Offset())
			in.persons = persons
			return err
		})
		return g.Wait()
	})
	if err != nil {
		s.cache.Abort(key)
		return payroll.Run{}, fmt.Errorf("failed to fetch payroll inputs: %w", err)
	}

	run, err := s.buildRun(regime, period, in)
	if err != nil {
		s.cache.Abort(key)
		return payroll.Run{}, err
	}
	run.Page = req.Page
	run.Limit = req.Limit

	if !s.cache.Store(key, run, generation) {
		slog.Info("Discarded payroll run computed under a superseded configuration",
			"run_id", run.RunID, "regime", regime, "period", period.String())
	}
	run.State = payroll.RunStateReady

	slog.Info("Payroll run computed",
		"run_id", run.RunID, "regime", regime, "period", period.String(),
		"page", run.Page, "records", len(run.Records), "skipped", len(run.Skipped))
	return run, nil
}

// ComputeFullExport implements payroll.PayrollService. It uses the same
// calculators and adjustment overlay as ComputeRun over every active person.
func (s *PayrollServiceImpl) ComputeFullExport(ctx context.Context, req payroll.ExportRequest) (payroll.Run, error) {
	if err := req.Validate(); err != nil {
		return payroll.Run{}, err
	}

	regime := person.Regime(req.Regime)
	period := req.Period()

	in, err := s.fetchInputs(ctx, regime, period, func(ctx context.Context, in *runInputs) error {
		persons, err := s.personRepo.ListAllActive(ctx, regime)
		in.persons = persons
		in.totalCount = int64(len(persons))
		return err
	})
	if err != nil {
		return payroll.Run{}, fmt.Errorf("failed to fetch payroll inputs: %w", err)
	}

	run, err := s.buildRun(regime, period, in)
	if err != nil {
		return payroll.Run{}, err
	}
	run.Page = 1
	run.Limit = len(in.persons)
	run.State = payroll.RunStateReady
	return run, nil
}

// WriteExportCSV implements payroll.PayrollService.
func (s *PayrollServiceImpl) WriteExportCSV(ctx context.Context, req payroll.ExportRequest, w io.Writer) error {
	run, err := s.ComputeFullExport(ctx, req)
	if err != nil {
		return err
	}

	rows := make([]payroll.ExportRow, 0, len(run.Records))
	for _, r := range run.Records {
		rows = append(rows, payroll.NewExportRow(r))
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write payroll csv: %w", err)
	}
	return nil
}

// loadPerson fetches the inputs of a single person for the period.
func (s *PayrollServiceImpl) loadPerson(ctx context.Context, regime person.Regime, personID int64, period payroll.Period) (*runInputs, error) {
	return s.fetchInputs(ctx, regime, period, func(ctx context.Context, in *runInputs) error {
		p, err := s.personRepo.GetByID(ctx, regime, personID)
		if err != nil {
			return err
		}
		in.persons = []person.Person{p}
		in.totalCount = 1
		return nil
	})
}

// GetPayslip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, req payroll.PersonPeriodRequest) (payroll.CalculationResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.CalculationResult{}, err
	}

	regime := person.Regime(req.Regime)
	in, err := s.loadPerson(ctx, regime, req.PersonID, req.Period())
	if err != nil {
		return payroll.CalculationResult{}, err
	}
	return s.calculate(regime, in.persons[0], in)
}

// GetAdjustment implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetAdjustment(ctx context.Context, req payroll.PersonPeriodRequest) (payroll.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	regime := person.Regime(req.Regime)
	in, err := s.loadPerson(ctx, regime, req.PersonID, req.Period())
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	rec, ok := in.adjustments[payroll.AdjustmentKey(regime, req.PersonID)]
	if !ok {
		return payroll.AdjustmentResponse{}, payroll.ErrAdjustmentNotFound
	}

	result, err := s.calculate(regime, in.persons[0], in)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}
	return payroll.NewAdjustmentResponse(rec, result), nil
}

// SaveAdjustment implements payroll.PayrollService. The override set replaces
// the stored one. A cascade first derives the dependent fields from the
// auto-computed factors; a worker daily rate that differs from the stored one
// always cascades. The saved record is then recomputed in place in every
// cached page of the period.
func (s *PayrollServiceImpl) SaveAdjustment(ctx context.Context, req payroll.SaveAdjustmentRequest) (payroll.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	regime := person.Regime(req.Regime)
	period := req.Period()
	if regime != person.RegimeWorker && req.Cascade != "" && req.Cascade != payroll.CascadeNone {
		return payroll.AdjustmentResponse{}, payroll.ErrCascadeNotSupported
	}

	in, err := s.loadPerson(ctx, regime, req.PersonID, period)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}
	p := in.persons[0]
	key := payroll.AdjustmentKey(regime, p.ID)

	overrides := req.Overrides
	cascade := req.Cascade
	if regime == person.RegimeWorker && (cascade == "" || cascade == payroll.CascadeNone) &&
		dailyRateChanged(in.adjustments[key], overrides.DailyRate) {
		cascade = payroll.CascadeDailyRate
	}

	switch cascade {
	case payroll.CascadeDailyRate, payroll.CascadeHolidayDays:
		delete(in.adjustments, key)
		auto, err := s.calculate(regime, p, in)
		if err != nil {
			return payroll.AdjustmentResponse{}, err
		}
		factors := auto.Details.Factors
		if cascade == payroll.CascadeDailyRate {
			overrides = overrides.WithDailyRate(*overrides.DailyRate, factors)
		} else {
			overrides = overrides.WithWorkedHolidayDays(*overrides.WorkedHolidayDays, factors)
		}
	}

	rec, err := s.adjustmentRepo.Upsert(ctx, payroll.AdjustmentRecord{
		Regime:      regime,
		PersonID:    p.ID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Overrides:   overrides,
		UpdatedBy:   req.UpdatedBy,
	})
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}

	in.adjustments[key] = rec
	result, err := s.calculate(regime, p, in)
	if err != nil {
		return payroll.AdjustmentResponse{}, err
	}
	touched := s.cache.ReplaceRecord(period, result)

	slog.Info("Payroll adjustment saved",
		"key", key, "period", period.String(), "cascade", cascade, "cached_runs_updated", touched)
	return payroll.NewAdjustmentResponse(rec, result), nil
}

// dailyRateChanged reports whether rate is a daily rate the stored adjustment
// does not already carry. The lines derived from it must then be recomputed.
func dailyRateChanged(stored payroll.AdjustmentRecord, rate *decimal.Decimal) bool {
	if rate == nil {
		return false
	}
	prev := stored.Overrides.DailyRate
	return prev == nil || !prev.Equal(*rate)
}

// DeleteAdjustment implements payroll.PayrollService.
func (s *PayrollServiceImpl) DeleteAdjustment(ctx context.Context, req payroll.PersonPeriodRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	regime := person.Regime(req.Regime)
	period := req.Period()
	if err := s.adjustmentRepo.Delete(ctx, regime, req.PersonID, period); err != nil {
		return err
	}

	in, err := s.loadPerson(ctx, regime, req.PersonID, period)
	if err == nil {
		var result payroll.CalculationResult
		if result, err = s.calculate(regime, in.persons[0], in); err == nil {
			s.cache.ReplaceRecord(period, result)
			return nil
		}
	}
	if !errors.Is(err, person.ErrPersonNotFound) {
		slog.Warn("Failed to recompute person after adjustment delete", "regime", regime, "person_id", req.PersonID, "error", err)
	}
	s.cache.InvalidatePeriod(regime, period)
	return nil
}
