package main

import (
	"context"
	"fmt"

	"scf-community/governor/internal/jobs"
	"scf-community/governor/internal/logging"
)

// runSync performs one sync pass over REST without opening the websocket
func runSync(ctx context.Context, guildIDs []string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var source jobs.GuildSource = jobs.NewStoredGuilds(a.guilds)
	if len(guildIDs) > 0 {
		source = jobs.StaticGuilds(guildIDs)
	}

	job := jobs.NewRoleSyncJob(source, a.roleSync, a.history, a.metrics, syncConcurrency)
	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func runSweep(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	closed, err := jobs.NewExpirySweepJob(a.voting, a.metrics).Run(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	logging.Info("Sweep finished", "closed", closed)
	return nil
}
