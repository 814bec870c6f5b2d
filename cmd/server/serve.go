package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"scf-community/governor/internal/jobs"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/middleware"
	"scf-community/governor/internal/routes"
	"scf-community/governor/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	syncConcurrency = 4
	shutdownTimeout = 15 * time.Second
)

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.newBot()
	if err := b.Start(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer func() {
		if err := b.Stop(); err != nil {
			logging.Warn("Failed to close discord session", "error", err.Error())
		}
	}()

	roleSyncJob := jobs.NewRoleSyncJob(
		jobs.MergedGuilds{b, jobs.NewStoredGuilds(a.guilds)},
		a.roleSync, a.history, a.metrics, syncConcurrency,
	)
	sweepJob := jobs.NewExpirySweepJob(a.voting, a.metrics)
	jobsContainer := jobs.InitializeJobs(ctx, roleSyncJob, sweepJob, jobs.Schedule{
		SyncInterval:  a.cfg.SyncInterval,
		SweepInterval: a.cfg.SweepInterval,
	})

	var workersContainer *workers.WorkersContainer
	if a.queue != nil {
		workersContainer = workers.InitWorkers(ctx, a.queue, a.notifier, notificationWorkers)
	}

	handler := routes.RegisterRoutes(a.apiDependencies(), routes.RouterOptions{
		Metrics:  a.metrics,
		Gatherer: prometheus.DefaultGatherer,
		Limiter:  middleware.NewRateLimiter(a.cfg.RateLimitPerSecond, a.cfg.RateLimitBurst),
		UpSince:  time.Now(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server starting", "port", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			stop()
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("HTTP server shutdown incomplete", "error", err.Error())
	}

	jobsContainer.Wait()
	if workersContainer != nil {
		workersContainer.Wait()
	}
	logging.Info("Governor stopped")
	return nil
}
