package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
	"scf-community/governor/internal/services"

	"golang.org/x/sync/errgroup"
)

// initialSyncWindow is how recent a sync must be for startup to skip the first run
const initialSyncWindow = 4 * time.Hour

// GuildSource lists the guilds the synchronizer should visit
type GuildSource interface {
	GuildIDs(ctx context.Context) ([]string, error)
}

type GuildSyncer interface {
	SyncGuild(ctx context.Context, guildID string) (*services.SyncReport, error)
}

type SyncHistory interface {
	GetLastSyncTimeForEvent(ctx context.Context, event string) (*time.Time, error)
}

// RoleSyncJob mirrors every guild's roles and roster into the store
type RoleSyncJob struct {
	guilds      GuildSource
	syncer      GuildSyncer
	history     SyncHistory
	metrics     *metrics.MetricsRegistry
	concurrency int
}

func NewRoleSyncJob(guilds GuildSource, syncer GuildSyncer, history SyncHistory, metricsReg *metrics.MetricsRegistry, concurrency int) *RoleSyncJob {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RoleSyncJob{
		guilds:      guilds,
		syncer:      syncer,
		history:     history,
		metrics:     metricsReg,
		concurrency: concurrency,
	}
}

// Run syncs every guild. A failing guild does not stop the others.
func (j *RoleSyncJob) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		j.metrics.JobDuration("role_sync", time.Since(start).Seconds())
	}()

	guildIDs, err := j.guilds.GuildIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list guilds: %w", err)
	}
	if len(guildIDs) == 0 {
		logging.Info("[RoleSyncJob] No guilds to sync")
		return nil
	}

	logging.Info("[RoleSyncJob] Starting role sync", "guilds", len(guildIDs))

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, guildID := range guildIDs {
		g.Go(func() error {
			if _, err := j.syncer.SyncGuild(gctx, guildID); err != nil {
				failed.Add(1)
				logging.Error("[RoleSyncJob] Failed to sync guild", "guild_id", guildID, "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	logging.Info("[RoleSyncJob] Completed role sync",
		"guilds", len(guildIDs),
		"failed", failed.Load(),
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)

	if int(failed.Load()) == len(guildIDs) {
		return fmt.Errorf("all %d guild syncs failed", len(guildIDs))
	}
	return nil
}

// shouldRunInitialSync reports whether the last roster sync is older than initialSyncWindow
func (j *RoleSyncJob) shouldRunInitialSync(ctx context.Context) bool {
	if j.history == nil {
		return true
	}

	lastSyncTime, err := j.history.GetLastSyncTimeForEvent(ctx, constants.SyncEventMembers)
	if err != nil {
		logging.Warn("[RoleSyncJob] Error checking last sync time, running sync anyway", "error", err.Error())
		return true
	}
	if lastSyncTime == nil {
		logging.Info("[RoleSyncJob] No previous sync found, running initial sync")
		return true
	}

	since := time.Since(*lastSyncTime)
	if since > initialSyncWindow {
		return true
	}

	logging.Info("[RoleSyncJob] Skipping initial sync", "last_sync_ago", since.Truncate(time.Minute).String())
	return false
}

// RunScheduled runs the job every interval until ctx is done
func (j *RoleSyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if j.shouldRunInitialSync(ctx) {
		if err := j.Run(ctx); err != nil {
			logging.Error("[RoleSyncJob] Error in initial run", "error", err.Error())
		}
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				logging.Error("[RoleSyncJob] Error in scheduled run", "error", err.Error())
			}
		case <-ctx.Done():
			logging.Info("[RoleSyncJob] Shutting down scheduled sync")
			return
		}
	}
}
