package payroll

import (
	"testing"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeriod() payroll.Period {
	return payroll.Period{
		Start: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
	}
}

func cachedRun(records ...payroll.CalculationResult) payroll.Run {
	run := payroll.Run{
		Regime:  person.RegimeWorker,
		Start:   "2024-03-04",
		End:     "2024-03-09",
		Records: records,
	}
	for _, r := range records {
		run.Totals = run.Totals.Add(r)
	}
	return run
}

// put stores run under key through the regular Begin and Store sequence.
func put(c *RunCache, key string, run payroll.Run) {
	c.Store(key, run, c.Begin(key, run.Regime, testPeriod()))
}

func TestRunCache_StateMachine(t *testing.T) {
	c := NewRunCache(time.Hour)
	key := runKey(person.RegimeWorker, testPeriod(), 1, 50)

	assert.Equal(t, payroll.RunStateIdle, c.State(key))

	gen := c.Begin(key, person.RegimeWorker, testPeriod())
	assert.Equal(t, payroll.RunStateCalculating, c.State(key))
	_, ok := c.Get(key)
	assert.False(t, ok)

	assert.True(t, c.Store(key, cachedRun(), gen))
	assert.Equal(t, payroll.RunStateReady, c.State(key))
	run, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, payroll.RunStateReady, run.State)

	c.Begin(key, person.RegimeWorker, testPeriod())
	_, ok = c.Get(key)
	assert.True(t, ok, "previous result stays readable while recalculating")
	c.Abort(key)
	assert.Equal(t, payroll.RunStateReady, c.State(key))
}

func TestRunCache_AbortWithoutResultReturnsToIdle(t *testing.T) {
	c := NewRunCache(time.Hour)
	key := runKey(person.RegimeStaff, testPeriod(), 2, 10)

	c.Begin(key, person.RegimeStaff, testPeriod())
	c.Abort(key)

	assert.Equal(t, payroll.RunStateIdle, c.State(key))
	assert.Equal(t, 0, c.Len())
}

func TestRunCache_ReplaceRecordRecomputesTotals(t *testing.T) {
	c := NewRunCache(time.Hour)
	key := runKey(person.RegimeWorker, testPeriod(), 1, 50)
	put(c, key, cachedRun(
		payroll.CalculationResult{Regime: person.RegimeWorker, PersonID: 1, NetPay: d("100"), TotalIncome: d("100")},
		payroll.CalculationResult{Regime: person.RegimeWorker, PersonID: 2, NetPay: d("50"), TotalIncome: d("50")},
	))

	// Same id in the other regime must not match.
	touched := c.ReplaceRecord(testPeriod(), payroll.CalculationResult{Regime: person.RegimeStaff, PersonID: 1, NetPay: d("999")})
	assert.Equal(t, 0, touched)

	touched = c.ReplaceRecord(testPeriod(), payroll.CalculationResult{
		Regime: person.RegimeWorker, PersonID: 1, NetPay: d("120"), TotalIncome: d("130"), Adjusted: true,
	})
	assert.Equal(t, 1, touched)

	run, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, run.Records[0].Adjusted)
	assertDecimal(t, "170", run.Totals.NetPay)
	assertDecimal(t, "180", run.Totals.TotalIncome)
}

func TestRunCache_EvictExpired(t *testing.T) {
	c := NewRunCache(time.Minute)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	put(c, "old", cachedRun())
	now = now.Add(2 * time.Minute)
	put(c, "fresh", cachedRun())

	_, ok := c.Get("old")
	assert.False(t, ok)

	assert.Equal(t, 1, c.EvictExpired())
	assert.Equal(t, 1, c.Len())
	_, ok = c.Get("fresh")
	assert.True(t, ok)
}

func TestRunCache_ConfigChangedClearsEverything(t *testing.T) {
	c := NewRunCache(time.Hour)
	put(c, "a", cachedRun())
	put(c, "b", cachedRun())

	c.ConfigChanged()
	assert.Equal(t, 0, c.Len())
}

func TestRunCache_GetReturnsCopy(t *testing.T) {
	c := NewRunCache(time.Hour)
	put(c, "k", cachedRun(payroll.CalculationResult{PersonID: 1, FullName: "A"}))

	run, _ := c.Get("k")
	run.Records[0].FullName = "mutated"

	again, _ := c.Get("k")
	assert.Equal(t, "A", again.Records[0].FullName)
}

func TestRunCache_DropsRunBegunBeforeConfigChange(t *testing.T) {
	c := NewRunCache(time.Hour)
	key := runKey(person.RegimeWorker, testPeriod(), 1, 50)

	stale := c.Begin(key, person.RegimeWorker, testPeriod())
	c.ConfigChanged()

	assert.False(t, c.Store(key, cachedRun(), stale))
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	// A calculation begun after the change is kept, even if a stale one
	// finishes later.
	fresh := c.Begin(key, person.RegimeWorker, testPeriod())
	assert.False(t, c.Store(key, cachedRun(payroll.CalculationResult{PersonID: 9}), stale))
	assert.Equal(t, payroll.RunStateCalculating, c.State(key))
	assert.True(t, c.Store(key, cachedRun(), fresh))
	run, ok := c.Get(key)
	require.True(t, ok)
	assert.Empty(t, run.Records)
}
