package payroll

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/advance"
	"github.com/obraplan/payroll-backend-go/internal/domain/attendance"
	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/obraplan/payroll-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== FAKES ==========

type fakePersonRepo struct {
	mu      sync.Mutex
	persons map[person.Regime][]person.Person
	lists   int
}

func (f *fakePersonRepo) CountActive(ctx context.Context, regime person.Regime) (int64, error) {
	return int64(len(f.persons[regime])), nil
}

func (f *fakePersonRepo) ListActive(ctx context.Context, regime person.Regime, limit, offset int) ([]person.Person, error) {
	f.mu.Lock()
	f.lists++
	f.mu.Unlock()

	all := f.persons[regime]
	if offset >= len(all) {
		return []person.Person{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (f *fakePersonRepo) ListAllActive(ctx context.Context, regime person.Regime) ([]person.Person, error) {
	return f.persons[regime], nil
}

func (f *fakePersonRepo) GetByID(ctx context.Context, regime person.Regime, id int64) (person.Person, error) {
	for _, p := range f.persons[regime] {
		if p.ID == id {
			return p, nil
		}
	}
	return person.Person{}, person.ErrPersonNotFound
}

type fakeAttendanceRepo struct {
	records map[person.Regime][]attendance.Record
}

func (f *fakeAttendanceRepo) ListByRange(ctx context.Context, regime person.Regime, start, end time.Time) ([]attendance.Record, error) {
	return f.records[regime], nil
}

type fakeAdvanceRepo struct {
	advances map[person.Regime][]advance.Advance
	err      error
}

func (f *fakeAdvanceRepo) ListByRange(ctx context.Context, regime person.Regime, start, end time.Time) ([]advance.Advance, error) {
	return f.advances[regime], f.err
}

type fakeAdjustmentRepo struct {
	mu      sync.Mutex
	records map[string]payroll.AdjustmentRecord
}

func adjKey(regime person.Regime, id int64, period payroll.Period) string {
	return payroll.AdjustmentKey(regime, id) + "|" + period.Key()
}

func (f *fakeAdjustmentRepo) Get(ctx context.Context, regime person.Regime, personID int64, period payroll.Period) (payroll.AdjustmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[adjKey(regime, personID, period)]
	if !ok {
		return payroll.AdjustmentRecord{}, payroll.ErrAdjustmentNotFound
	}
	return rec, nil
}

func (f *fakeAdjustmentRepo) ListForPeriod(ctx context.Context, regime person.Regime, period payroll.Period) (map[string]payroll.AdjustmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]payroll.AdjustmentRecord)
	for _, rec := range f.records {
		if rec.Regime == regime && rec.PeriodStart.Equal(period.Start) && rec.PeriodEnd.Equal(period.End) {
			out[rec.Key()] = rec
		}
	}
	return out, nil
}

func (f *fakeAdjustmentRepo) Upsert(ctx context.Context, record payroll.AdjustmentRecord) (payroll.AdjustmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.ID = "adj-" + record.Key()
	record.UpdatedAt = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f.records[adjKey(record.Regime, record.PersonID, payroll.Period{Start: record.PeriodStart, End: record.PeriodEnd})] = record
	return record, nil
}

func (f *fakeAdjustmentRepo) Delete(ctx context.Context, regime person.Regime, personID int64, period payroll.Period) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := adjKey(regime, personID, period)
	if _, ok := f.records[key]; !ok {
		return payroll.ErrAdjustmentNotFound
	}
	delete(f.records, key)
	return nil
}

type fakeProvider struct {
	snap   payrollconfig.Snapshot
	onLoad func()
}

func (f fakeProvider) Load(ctx context.Context) (payrollconfig.Snapshot, error) {
	if f.onLoad != nil {
		f.onLoad()
	}
	return f.snap, nil
}

// ========== FIXTURE ==========

type fixture struct {
	svc         payroll.PayrollService
	persons     *fakePersonRepo
	attendance  *fakeAttendanceRepo
	snapshot    payrollconfig.Snapshot
	advances    *fakeAdvanceRepo
	adjustments *fakeAdjustmentRepo
	cache       *RunCache
}

func presentDays(personID int64, n int) []attendance.Record {
	records := make([]attendance.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, attendance.Record{
			PersonID: personID,
			Date:     time.Date(2024, 3, 4+i, 0, 0, 0, 0, time.UTC),
			Status:   attendance.StatusPresent,
		})
	}
	return records
}

func newFixture() *fixture {
	juan := operario()
	rosa := operario()
	rosa.ID = 2
	rosa.FullName = "Rosa Huamán"
	broken := operario()
	broken.ID = 0
	broken.FullName = "Registro Roto"

	persons := &fakePersonRepo{persons: map[person.Regime][]person.Person{
		person.RegimeWorker: {juan, broken, rosa},
		person.RegimeStaff: {{
			ID: 1, Regime: person.RegimeStaff, FullName: "María Flores",
			Salary: dp("3000"), PensionSystem: "ONP",
		}},
	}}

	att := &fakeAttendanceRepo{records: map[person.Regime][]attendance.Record{
		person.RegimeWorker: append(presentDays(1, 6), presentDays(2, 5)...),
		person.RegimeStaff:  presentDays(1, 30),
	}}

	advances := &fakeAdvanceRepo{advances: map[person.Regime][]advance.Advance{
		person.RegimeWorker: {
			{PersonID: 2, Amount: d("50"), Status: advance.StatusPending},
			{PersonID: 2, Amount: d("25"), Status: advance.StatusPaid},
		},
	}}

	adjustments := &fakeAdjustmentRepo{records: make(map[string]payroll.AdjustmentRecord)}
	snap := workerSnapshot()
	snap.Config[payrollconfig.KeyStaffONP] = d("0.13")

	cache := NewRunCache(time.Hour)
	svc := NewPayrollService(persons, att, advances, adjustments, fakeProvider{snap: snap}, cache, 100)

	return &fixture{
		svc:         svc,
		persons:     persons,
		attendance:  att,
		snapshot:    snap,
		advances:    advances,
		adjustments: adjustments,
		cache:       cache,
	}
}

func runRequest() payroll.RunRequest {
	return payroll.RunRequest{Regime: "worker", Start: "2024-03-04", End: "2024-03-09", Page: 1, Limit: 10}
}

// ========== TESTS ==========

func TestComputeRun_SkipsMalformedPersons(t *testing.T) {
	f := newFixture()

	run, err := f.svc.ComputeRun(context.Background(), runRequest())
	require.NoError(t, err)

	require.Len(t, run.Records, 2)
	require.Len(t, run.Skipped, 1)
	assert.Equal(t, int64(0), run.Skipped[0].PersonID)
	assert.Equal(t, int64(3), run.TotalCount)
	assert.Equal(t, payroll.RunStateReady, run.State)
	assert.NotEmpty(t, run.RunID)

	assertDecimal(t, "655.08", run.Records[0].NetPay)
	// Rosa: 5 days, no dominical, both advances deducted regardless of status.
	assertDecimal(t, "75", run.Records[1].TotalAdvances)
	assert.Equal(t, 2, run.Totals.Persons)
}

func TestComputeRun_ServesCacheUntilRecalculate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	second, err := f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)

	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, 1, f.persons.lists)

	req := runRequest()
	req.Recalculate = true
	third, err := f.svc.ComputeRun(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, third.RunID)
	assert.Equal(t, 2, f.persons.lists)
}

func TestComputeRun_ConfigChangeDuringRunIsNotCached(t *testing.T) {
	f := newFixture()
	changed := false
	provider := fakeProvider{snap: f.snapshot, onLoad: func() {
		// A configuration write lands while the first run is fetching.
		if !changed {
			changed = true
			f.cache.ConfigChanged()
		}
	}}
	svc := NewPayrollService(f.persons, f.attendance, f.advances, f.adjustments, provider, f.cache, 100)
	ctx := context.Background()

	first, err := svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	assert.Len(t, first.Records, 2)
	assert.Equal(t, 0, f.cache.Len())

	second, err := svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 2, f.persons.lists)

	third, err := svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	assert.Equal(t, second.RunID, third.RunID)
}

func TestComputeRun_FetchFailureLeavesCacheIdle(t *testing.T) {
	f := newFixture()
	f.advances.err = errors.New("connection reset")

	_, err := f.svc.ComputeRun(context.Background(), runRequest())
	require.Error(t, err)

	req := runRequest()
	require.NoError(t, req.Validate())
	assert.Equal(t, payroll.RunStateIdle, f.cache.State(runKey(person.RegimeWorker, req.Period(), 1, 10)))
}

func TestComputeRun_RejectsInvalidPeriod(t *testing.T) {
	f := newFixture()
	req := runRequest()
	req.Start, req.End = req.End, req.Start

	_, err := f.svc.ComputeRun(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 0, f.persons.lists)
}

func TestComputeRun_RejectsPageThatWouldOverflowTheOffset(t *testing.T) {
	f := newFixture()
	req := runRequest()
	req.Page = 1 << 62

	_, err := f.svc.ComputeRun(context.Background(), req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "page")
	assert.Equal(t, 0, f.persons.lists)
}

func TestComputeRun_ClampsLimit(t *testing.T) {
	f := newFixture()
	req := runRequest()
	req.Limit = 10000

	run, err := f.svc.ComputeRun(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 100, run.Limit)
}

func TestSaveAdjustment_RecomputesCachedRecordInPlace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)

	reviewer := "user-7"
	resp, err := f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: payroll.PersonPeriodRequest{Regime: "worker", PersonID: 1, Start: "2024-03-04", End: "2024-03-09"},
		Overrides:           payroll.Adjustment{VoluntaryBonus: dp("36")},
		UpdatedBy:           &reviewer,
	})
	require.NoError(t, err)
	assert.Equal(t, "worker_1", resp.Key)
	assert.Equal(t, &reviewer, resp.UpdatedBy)
	assertDecimal(t, "800", resp.Result.TotalIncome)
	assert.True(t, resp.Result.Adjusted)

	cached, err := f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, f.persons.lists, "served from cache")
	assertDecimal(t, "800", cached.Records[0].TotalIncome)
	assert.True(t, cached.Records[0].Adjusted)

	// A fresh computation agrees with the in-place update.
	req := runRequest()
	req.Recalculate = true
	fresh, err := f.svc.ComputeRun(ctx, req)
	require.NoError(t, err)
	assert.True(t, fresh.Records[0].NetPay.Equal(cached.Records[0].NetPay))
}

func TestSaveAdjustment_DailyRateCascade(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.SaveAdjustment(context.Background(), payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: payroll.PersonPeriodRequest{Regime: "worker", PersonID: 1, Start: "2024-03-04", End: "2024-03-09"},
		Overrides:           payroll.Adjustment{DailyRate: dp("100"), Mobility: dp("0")},
		Cascade:             payroll.CascadeDailyRate,
	})
	require.NoError(t, err)

	lines := resp.Result.Details.Lines
	assertDecimal(t, "600", lines.BasicSalary)
	assertDecimal(t, "100", lines.Dominical)
	assertDecimal(t, "180", lines.BUC)
	assertDecimal(t, "60", lines.Vacation)
	assertDecimal(t, "120", lines.Gratification)
	assertDecimal(t, "90", lines.Indemnity)
	assertDecimal(t, "0", lines.Mobility)
	require.NotNil(t, resp.Overrides.BasicSalary)
}

func TestSaveAdjustment_NewDailyRateAlwaysRecomputesDependentLines(t *testing.T) {
	for _, cascade := range []payroll.Cascade{"", payroll.CascadeNone} {
		t.Run("cascade="+string(cascade), func(t *testing.T) {
			f := newFixture()

			resp, err := f.svc.SaveAdjustment(context.Background(), payroll.SaveAdjustmentRequest{
				PersonPeriodRequest: payroll.PersonPeriodRequest{Regime: "worker", PersonID: 1, Start: "2024-03-04", End: "2024-03-09"},
				Overrides:           payroll.Adjustment{DailyRate: dp("100")},
				Cascade:             cascade,
			})
			require.NoError(t, err)

			lines := resp.Result.Details.Lines
			assertDecimal(t, "100", lines.DailyRate)
			assertDecimal(t, "600", lines.BasicSalary)
			assertDecimal(t, "100", lines.Dominical)
			assertDecimal(t, "180", lines.BUC)
			assertDecimal(t, "60", lines.Vacation)
			assertDecimal(t, "120", lines.Gratification)
			assertDecimal(t, "90", lines.Indemnity)
			require.NotNil(t, resp.Overrides.BasicSalary, "derived lines are stored with the rate")
		})
	}
}

func TestSaveAdjustment_UnchangedDailyRateKeepsManualLines(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	target := payroll.PersonPeriodRequest{Regime: "worker", PersonID: 1, Start: "2024-03-04", End: "2024-03-09"}

	_, err := f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: target,
		Overrides:           payroll.Adjustment{DailyRate: dp("100")},
	})
	require.NoError(t, err)

	// Same rate resent with a hand-edited basic salary: the edit stands.
	resp, err := f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: target,
		Overrides:           payroll.Adjustment{DailyRate: dp("100.00"), BasicSalary: dp("650")},
	})
	require.NoError(t, err)
	assertDecimal(t, "650", resp.Result.Details.BasicSalary)

	// A different rate recomputes again.
	resp, err = f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: target,
		Overrides:           payroll.Adjustment{DailyRate: dp("90"), BasicSalary: dp("650")},
	})
	require.NoError(t, err)
	assertDecimal(t, "540", resp.Result.Details.BasicSalary)
	assertDecimal(t, "90", resp.Result.Details.Dominical)
}

func TestSaveAdjustment_CascadeIsWorkerOnly(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SaveAdjustment(context.Background(), payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: payroll.PersonPeriodRequest{Regime: "staff", PersonID: 1, Start: "2024-03-01", End: "2024-03-30"},
		Overrides:           payroll.Adjustment{DailyRate: dp("100")},
		Cascade:             payroll.CascadeDailyRate,
	})
	assert.ErrorIs(t, err, payroll.ErrCascadeNotSupported)
}

func TestAdjustments_AreNamespacedByRegime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: payroll.PersonPeriodRequest{Regime: "worker", PersonID: 1, Start: "2024-03-04", End: "2024-03-09"},
		Overrides:           payroll.Adjustment{VoluntaryBonus: dp("500")},
	})
	require.NoError(t, err)

	staff, err := f.svc.GetPayslip(ctx, payroll.PersonPeriodRequest{Regime: "staff", PersonID: 1, Start: "2024-03-04", End: "2024-03-09"})
	require.NoError(t, err)
	assert.False(t, staff.Adjusted)
	assertDecimal(t, "0", staff.Details.VoluntaryBonus)
}

func TestGetAndDeleteAdjustment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	target := payroll.PersonPeriodRequest{Regime: "worker", PersonID: 2, Start: "2024-03-04", End: "2024-03-09"}

	_, err := f.svc.GetAdjustment(ctx, target)
	assert.ErrorIs(t, err, payroll.ErrAdjustmentNotFound)

	_, err = f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)

	_, err = f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: target,
		Overrides:           payroll.Adjustment{OtherDeduction: dp("10")},
	})
	require.NoError(t, err)

	got, err := f.svc.GetAdjustment(ctx, target)
	require.NoError(t, err)
	assertDecimal(t, "10", *got.Overrides.OtherDeduction)

	require.NoError(t, f.svc.DeleteAdjustment(ctx, target))
	assert.ErrorIs(t, f.svc.DeleteAdjustment(ctx, target), payroll.ErrAdjustmentNotFound)

	cached, err := f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	assert.False(t, cached.Records[1].Adjusted)
	assertDecimal(t, "0", cached.Records[1].Details.OtherDeduction)
}

func TestGetPayslip_UnknownPerson(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetPayslip(context.Background(), payroll.PersonPeriodRequest{
		Regime: "worker", PersonID: 99, Start: "2024-03-04", End: "2024-03-09",
	})
	assert.ErrorIs(t, err, person.ErrPersonNotFound)
}

func TestComputeFullExport_MatchesPaginatedRun(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SaveAdjustment(ctx, payroll.SaveAdjustmentRequest{
		PersonPeriodRequest: payroll.PersonPeriodRequest{Regime: "worker", PersonID: 2, Start: "2024-03-04", End: "2024-03-09"},
		Overrides:           payroll.Adjustment{PerDiem: dp("40")},
	})
	require.NoError(t, err)

	page, err := f.svc.ComputeRun(ctx, runRequest())
	require.NoError(t, err)
	export, err := f.svc.ComputeFullExport(ctx, payroll.ExportRequest{Regime: "worker", Start: "2024-03-04", End: "2024-03-09"})
	require.NoError(t, err)

	require.Len(t, export.Records, len(page.Records))
	for i := range page.Records {
		assert.True(t, page.Records[i].NetPay.Equal(export.Records[i].NetPay), "person %d", page.Records[i].PersonID)
	}
	assert.True(t, page.Totals.NetPay.Equal(export.Totals.NetPay))
}

func TestWriteExportCSV(t *testing.T) {
	f := newFixture()
	var buf bytes.Buffer

	err := f.svc.WriteExportCSV(context.Background(), payroll.ExportRequest{
		Regime: "worker", Start: "2024-03-04", End: "2024-03-09", Format: payroll.ExportFormatCSV,
	}, &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	header := lines[0]
	for _, col := range []string{"person_id", "full_name", "basic_salary", "dominical", "buc", "mobility", "pension_label", "net_pay"} {
		assert.Contains(t, header, col)
	}
	assert.Contains(t, lines[1], "Juan Quispe")
	assert.Contains(t, lines[1], "655.08")
}
