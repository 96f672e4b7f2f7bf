package cron

import (
	"context"
	"log/slog"
	"time"
)

// RunCacheEvicter drops expired payroll runs.
type RunCacheEvicter interface {
	EvictExpired() int
	Len() int
}

type PayrollJobs struct {
	cache RunCacheEvicter
}

func NewPayrollJobs(cache RunCacheEvicter) *PayrollJobs {
	return &PayrollJobs{cache: cache}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, sweepInterval time.Duration) {
	scheduler.AddJob("evict_stale_payroll_runs", sweepInterval, j.EvictStaleRuns)
}

func (j *PayrollJobs) EvictStaleRuns(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	evicted := j.cache.EvictExpired()
	if evicted > 0 {
		slog.Info("Cron: Evicted stale payroll runs", "evicted", evicted, "remaining", j.cache.Len())
	}
	return nil
}
