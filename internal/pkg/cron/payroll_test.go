package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvicter struct {
	evictions atomic.Int32
}

func (f *fakeEvicter) EvictExpired() int {
	f.evictions.Add(1)
	return 2
}

func (f *fakeEvicter) Len() int { return 0 }

func TestEvictStaleRuns(t *testing.T) {
	cache := &fakeEvicter{}
	jobs := NewPayrollJobs(cache)

	require.NoError(t, jobs.EvictStaleRuns(context.Background()))
	assert.Equal(t, int32(1), cache.evictions.Load())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, jobs.EvictStaleRuns(ctx), context.Canceled)
	assert.Equal(t, int32(1), cache.evictions.Load())
}

func TestScheduler_RunsRegisteredJobsOnInterval(t *testing.T) {
	cache := &fakeEvicter{}
	s := NewScheduler(context.Background())
	NewPayrollJobs(cache).RegisterJobs(s, 5*time.Millisecond)

	s.Start()
	assert.Eventually(t, func() bool { return cache.evictions.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := cache.evictions.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, cache.evictions.Load())
}

func TestScheduler_RecoversPanickingJob(t *testing.T) {
	s := NewScheduler(context.Background())
	var ran atomic.Bool

	s.AddJob("panics", time.Hour, func(ctx context.Context) error { panic("boom") })
	s.AddJob("fails", time.Hour, func(ctx context.Context) error { return errors.New("failed") })
	s.AddJob("succeeds", time.Hour, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.NotPanics(t, func() { s.RunOnce(context.Background()) })
	assert.True(t, ran.Load())
}
