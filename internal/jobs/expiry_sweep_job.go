package jobs

import (
	"context"
	"time"

	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
)

type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// ExpirySweepJob closes voting sessions nobody touched after their deadline
type ExpirySweepJob struct {
	sweeper Sweeper
	metrics *metrics.MetricsRegistry
	now     func() time.Time
}

func NewExpirySweepJob(sweeper Sweeper, metricsReg *metrics.MetricsRegistry) *ExpirySweepJob {
	return &ExpirySweepJob{
		sweeper: sweeper,
		metrics: metricsReg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (j *ExpirySweepJob) Run(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		j.metrics.JobDuration("expiry_sweep", time.Since(start).Seconds())
	}()

	closed, err := j.sweeper.SweepExpired(ctx, j.now())
	if err != nil {
		return closed, err
	}
	if closed > 0 {
		logging.Info("[ExpirySweepJob] Closed expired sessions", "closed", closed)
	}
	return closed, nil
}

// RunScheduled sweeps once immediately, then every interval until ctx is done
func (j *ExpirySweepJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
			logging.Error("[ExpirySweepJob] Error in sweep", "error", err.Error())
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logging.Info("[ExpirySweepJob] Shutting down")
			return
		}
	}
}
