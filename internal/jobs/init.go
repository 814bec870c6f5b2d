package jobs

import (
	"context"
	"sync"
	"time"
)

type Schedule struct {
	SyncInterval  time.Duration
	SweepInterval time.Duration
}

// JobsContainer holds the scheduled jobs so they can also be triggered by hand
type JobsContainer struct {
	RoleSync    *RoleSyncJob
	ExpirySweep *ExpirySweepJob

	wg sync.WaitGroup
}

// InitializeJobs starts every scheduled job in the background; they stop with ctx
func InitializeJobs(ctx context.Context, roleSync *RoleSyncJob, sweep *ExpirySweepJob, schedule Schedule) *JobsContainer {
	c := &JobsContainer{
		RoleSync:    roleSync,
		ExpirySweep: sweep,
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		roleSync.RunScheduled(ctx, schedule.SyncInterval)
	}()
	go func() {
		defer c.wg.Done()
		sweep.RunScheduled(ctx, schedule.SweepInterval)
	}()

	return c
}

// Wait blocks until every job has returned
func (c *JobsContainer) Wait() {
	c.wg.Wait()
}
