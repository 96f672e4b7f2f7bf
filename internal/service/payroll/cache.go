package payroll

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
)

type cacheEntry struct {
	regime   person.Regime
	period   string
	state    payroll.RunState
	run      payroll.Run
	storedAt time.Time
}

// RunCache keeps computed pages in memory, keyed by regime, period, page and
// limit. An absent key is Idle.
type RunCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	now     func() time.Time
	// generation advances on every configuration change. Results computed
	// under an older generation are never stored.
	generation uint64
}

func NewRunCache(ttl time.Duration) *RunCache {
	return &RunCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func runKey(regime person.Regime, period payroll.Period, page, limit int) string {
	return fmt.Sprintf("%s|%s|%d|%d", regime, period.Key(), page, limit)
}

// Begin marks the key as Calculating and returns the generation the
// calculation runs under. A previously cached run stays readable until Store
// or Abort.
func (c *RunCache) Begin(key string, regime person.Regime, period payroll.Period) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{regime: regime, period: period.Key()}
		c.entries[key] = e
	}
	e.state = payroll.RunStateCalculating
	return c.generation
}

// Store caches a finished run as Ready. A run begun before the last
// configuration change is dropped and Store reports false.
func (c *RunCache) Store(key string, run payroll.Run, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{regime: run.Regime}
		c.entries[key] = e
	}
	run.State = payroll.RunStateReady
	e.period = periodKeyOf(run)
	e.state = payroll.RunStateReady
	e.run = run
	e.storedAt = c.now()
	return true
}

// Abort returns a failed calculation to its previous state, or to Idle.
func (c *RunCache) Abort(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.storedAt.IsZero() {
		delete(c.entries, key)
		return
	}
	e.state = payroll.RunStateReady
}

// Get returns a fresh Ready run.
func (c *RunCache) Get(key string) (payroll.Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.storedAt.IsZero() || c.expired(e) {
		return payroll.Run{}, false
	}
	return cloneRun(e.run), true
}

// State reports the state of a key.
func (c *RunCache) State(key string) payroll.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return payroll.RunStateIdle
	}
	return e.state
}

// ReplaceRecord swaps one person's result into every cached run of the
// period that contains it and recomputes the run totals. It returns the
// number of runs touched.
func (c *RunCache) ReplaceRecord(period payroll.Period, result payroll.CalculationResult) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := 0
	for _, e := range c.entries {
		if e.regime != result.Regime || e.period != period.Key() || e.storedAt.IsZero() {
			continue
		}
		replaced := false
		for i := range e.run.Records {
			if e.run.Records[i].PersonID == result.PersonID {
				e.run.Records[i] = result
				replaced = true
			}
		}
		if !replaced {
			continue
		}
		totals := payroll.RunTotals{}
		for _, r := range e.run.Records {
			totals = totals.Add(r)
		}
		e.run.Totals = totals
		touched++
	}
	return touched
}

// InvalidatePeriod drops every cached run of a regime and period.
func (c *RunCache) InvalidatePeriod(regime person.Regime, period payroll.Period) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.regime == regime && e.period == period.Key() {
			delete(c.entries, key)
		}
	}
}

// ConfigChanged drops every cached run, since each was computed from the
// previous configuration snapshot.
func (c *RunCache) ConfigChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.generation++
}

// EvictExpired removes Ready runs older than the TTL and returns how many
// were removed.
func (c *RunCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if e.state == payroll.RunStateReady && c.expired(e) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked keys.
func (c *RunCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *RunCache) expired(e *cacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl
}

func periodKeyOf(run payroll.Run) string {
	return run.Start + "_" + run.End
}

func cloneRun(run payroll.Run) payroll.Run {
	run.Records = slices.Clone(run.Records)
	run.Skipped = slices.Clone(run.Skipped)
	return run
}
