package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/pkg/config"
)

// maxSweepBatches caps a single scheduled reconciliation run so a stuck
// backlog cannot pin the scheduler.
const maxSweepBatches = 20

// SweepScheduler drives the reconciliation and cache sweeps on cron
// schedules. Overlap protection lives in the services themselves; the
// scheduler only supplies the periodic trigger.
type SweepScheduler struct {
	resolver  *ResolverService
	oddsCache *PropOddsCacheService
	cfg       *config.Config
	logger    *logrus.Logger
	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewSweepScheduler(resolver *ResolverService, oddsCache *PropOddsCacheService, cfg *config.Config, logger *logrus.Logger) *SweepScheduler {
	return &SweepScheduler{
		resolver:  resolver,
		oddsCache: oddsCache,
		cfg:       cfg,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start schedules the sweeps and begins the cron loop.
func (s *SweepScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sweep scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.cfg.SweepSchedule, s.runReconciliation); err != nil {
		return fmt.Errorf("failed to schedule reconciliation sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.CacheSweepSchedule, s.runCacheSweep); err != nil {
		return fmt.Errorf("failed to schedule cache sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.RetentionSchedule, s.runRetentionPurge); err != nil {
		return fmt.Errorf("failed to schedule retention purge: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Sweep scheduler started")
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Sweep scheduler stopped")
}

// runReconciliation drains the pending backlog in bounded batches with a
// delay between them to smooth load on vendor collaborators.
func (s *SweepScheduler) runReconciliation() {
	ctx := context.Background()

	offset := 0
	for batch := 0; batch < maxSweepBatches; batch++ {
		summary, err := s.resolver.Sweep(ctx, offset, s.cfg.SweepBatchSize)
		if err != nil {
			s.logger.Errorf("Reconciliation sweep batch %d failed: %v", batch, err)
			return
		}
		if summary.Remaining == 0 || summary.Processed == 0 {
			return
		}
		// Resolved records leave the pending set; resume where the
		// last page's unresolved records end so none are skipped.
		offset = summary.NextOffset
		time.Sleep(s.cfg.SweepBatchDelay)
	}
}

func (s *SweepScheduler) runCacheSweep() {
	ctx := context.Background()

	flipped, err := s.oddsCache.MarkStale(ctx)
	if err != nil {
		s.logger.Errorf("Cache staleness sweep failed: %v", err)
		return
	}
	if flipped > 0 {
		s.logger.WithField("entries", flipped).Info("Marked expired cache entries stale")
	}
}

func (s *SweepScheduler) runRetentionPurge() {
	ctx := context.Background()

	purged, err := s.oddsCache.Purge(ctx)
	if err != nil {
		s.logger.Errorf("Cache retention purge failed: %v", err)
		return
	}
	if purged > 0 {
		s.logger.WithField("entries", purged).Info("Purged aged-out cache entries")
	}
}
