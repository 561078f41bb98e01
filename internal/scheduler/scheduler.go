// Package scheduler runs the catalog sync on a fixed cron cadence and
// handles the startup refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cloud4india/cloud-pricing/internal/domain"
	"github.com/cloud4india/cloud-pricing/internal/logger"
	"github.com/cloud4india/cloud-pricing/internal/sync"
)

// Scheduler triggers periodic catalog syncs. The interval is read once at
// startup; changing it through the admin configuration takes effect after a
// restart.
type Scheduler struct {
	syncer          *sync.Syncer
	intervalMinutes int
	cron            *cron.Cron
}

// New creates a scheduler firing every intervalMinutes.
func New(syncer *sync.Syncer, intervalMinutes int) *Scheduler {
	return &Scheduler{
		syncer:          syncer,
		intervalMinutes: intervalMinutes,
	}
}

// RunInitialSync refreshes the cache at startup when it is missing or older
// than one sync interval. A fresh cache skips the run so restarts do not
// hammer upstream.
func (s *Scheduler) RunInitialSync(ctx context.Context) {
	cfg := s.syncer.EffectiveConfig(ctx)
	if !s.syncer.ShouldSync(ctx, cfg.SyncInterval()) {
		logger.InfoCtx(ctx, "cache is fresh, skipping initial sync")
		return
	}

	logger.InfoCtx(ctx, "running initial catalog sync")
	s.runOnce(ctx)
}

// Start registers the cron entry and begins firing. It must be called at
// most once.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("*/%d * * * *", s.intervalMinutes)
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		logger.InfoCtx(ctx, "running scheduled catalog sync")
		s.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule catalog sync: %w", err)
	}

	s.cron.Start()
	logger.InfoCtx(ctx, "catalog sync scheduled", zap.String("spec", spec))
	return nil
}

// Stop halts the cron loop and waits for an in-flight tick to return.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.syncer.SyncAll(ctx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		logger.InfoCtx(ctx, "sync already in progress, skipping scheduled run")
	case errors.Is(err, domain.ErrSyncDisabled):
		// Already logged by the syncer
	case err != nil:
		logger.ErrorCtx(ctx, err)
	default:
		logger.InfoCtx(ctx, "scheduled sync completed",
			zap.Int("services", result.Counts.Services),
			zap.Int("plans", result.Counts.Plans),
			zap.Int("failed_collections", len(result.Errors)))
	}
}
