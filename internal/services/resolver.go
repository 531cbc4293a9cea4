package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/providers"
	"github.com/jcreedon/prop-insights/internal/store"
)

// ErrSweepInProgress means a reconciliation sweep is already running;
// only one sweep may run at a time.
var ErrSweepInProgress = errors.New("reconciliation sweep already in progress")

// ResolverService grades pending predictions against observed outcomes
// and drives the batched reconciliation sweep.
type ResolverService struct {
	store  *store.PropStore
	games  providers.GameLookup
	stats  map[models.Sport]providers.StatFetcher
	cache  *CacheService
	logger *logrus.Logger

	mu       sync.Mutex
	sweeping bool
}

func NewResolverService(
	propStore *store.PropStore,
	games providers.GameLookup,
	stats map[models.Sport]providers.StatFetcher,
	cache *CacheService,
	logger *logrus.Logger,
) *ResolverService {
	return &ResolverService{
		store:  propStore,
		games:  games,
		stats:  stats,
		cache:  cache,
		logger: logger,
	}
}

// Resolve grades one record against its observed stat and transitions
// it to completed. Returns nil when no such prop exists; callers treat
// that as nothing to update.
func (r *ResolverService) Resolve(ctx context.Context, propID string, actualValue float64) (*models.PropPrediction, error) {
	record, err := r.store.FindByPropID(ctx, propID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		r.logger.WithField("prop_id", propID).Warn("Resolve called for unknown prop")
		return nil, nil
	}

	result := models.GradeOutcome(record.Prediction, record.Threshold, actualValue)
	completedAt := time.Now().UTC()

	updated, err := r.store.Complete(ctx, propID, actualValue, result, completedAt)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Already resolved by a concurrent sweep; return the stored row as-is
		return r.store.FindByPropID(ctx, propID)
	}

	r.invalidateAnalytics(ctx)

	record.Status = models.StatusCompleted
	record.Result = &result
	record.ActualValue = &actualValue
	record.CompletedAt = &completedAt

	r.logger.WithFields(logrus.Fields{
		"prop_id": propID,
		"result":  result,
		"actual":  actualValue,
	}).Info("Resolved prop prediction")

	return record, nil
}

// SweepSummary reports one reconciliation batch: how many records were
// resolved or parked, what went wrong, and how much backlog remains.
type SweepSummary struct {
	Processed   int      `json:"processed"`
	Updated     int      `json:"updated"`
	NeedsReview int      `json:"needs_review"`
	Skipped     int      `json:"skipped"`
	Errors      []string `json:"errors,omitempty"`
	Remaining   int64    `json:"remaining"`
	NextOffset  int      `json:"next_offset"`
}

// Sweep works one page of the pending backlog, starting offset rows
// into the pending set ordered by timestamp. Resolved and parked
// records leave that set, so NextOffset advances only past records
// this page left pending (skipped or errored); callers repeat with the
// returned cursor until Remaining or Processed hits zero. Per-record
// failures are collected, never raised, so one bad record cannot abort
// the batch.
func (r *ResolverService) Sweep(ctx context.Context, offset, batchSize int) (*SweepSummary, error) {
	r.mu.Lock()
	if r.sweeping {
		r.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	r.sweeping = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.sweeping = false
		r.mu.Unlock()
	}()

	if batchSize <= 0 {
		batchSize = 25
	}

	records, err := r.store.PendingBatch(ctx, offset, batchSize)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{Processed: len(records)}
	now := time.Now().UTC()

	for _, record := range records {
		if err := r.sweepOne(ctx, record, now, summary); err != nil {
			// Collaborator failure: leave the record pending for the
			// next sweep and keep going
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", record.PropID, err))
			r.logger.WithFields(logrus.Fields{
				"prop_id": record.PropID,
				"error":   err.Error(),
			}).Warn("Sweep failed for record, will retry next pass")
		}
	}

	if summary.Updated > 0 || summary.NeedsReview > 0 {
		r.invalidateAnalytics(ctx)
	}

	remaining, err := r.store.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	summary.Remaining = remaining
	summary.NextOffset = offset + summary.Skipped + len(summary.Errors)

	r.logger.WithFields(logrus.Fields{
		"offset":       offset,
		"processed":    summary.Processed,
		"updated":      summary.Updated,
		"needs_review": summary.NeedsReview,
		"errors":       len(summary.Errors),
		"remaining":    summary.Remaining,
	}).Info("Reconciliation sweep batch complete")

	return summary, nil
}

func (r *ResolverService) sweepOne(ctx context.Context, record models.PropPrediction, now time.Time, summary *SweepSummary) error {
	game, err := r.games.LookupGame(ctx, record.GameID)
	if err != nil {
		return fmt.Errorf("lookup game: %w", err)
	}
	if game == nil {
		summary.Skipped++
		return nil
	}
	if !game.IsFinal(now) {
		summary.Skipped++
		return nil
	}

	fetcher, ok := r.stats[record.Sport]
	if !ok {
		// No stat source for this sport; park the record instead of
		// leaving it pending forever
		return r.parkNeedsReview(ctx, record, fmt.Sprintf("no stat source for sport %q", record.Sport), summary)
	}

	_, externalID, err := providers.SplitGameID(record.GameID)
	if err != nil {
		return r.parkNeedsReview(ctx, record, err.Error(), summary)
	}

	actual, err := fetcher.FetchActualStat(ctx, record.Sport, externalID, record.PlayerName, record.PropType)
	if err != nil {
		return fmt.Errorf("fetch actual stat: %w", err)
	}
	if actual == nil {
		return r.parkNeedsReview(ctx, record, "game final but stat unavailable", summary)
	}

	result := models.GradeOutcome(record.Prediction, record.Threshold, *actual)
	updated, err := r.store.Complete(ctx, record.PropID, *actual, result, now)
	if err != nil {
		return err
	}
	if updated {
		summary.Updated++
	}
	return nil
}

func (r *ResolverService) parkNeedsReview(ctx context.Context, record models.PropPrediction, note string, summary *SweepSummary) error {
	updated, err := r.store.MarkNeedsReview(ctx, record.PropID, note)
	if err != nil {
		return err
	}
	if updated {
		summary.NeedsReview++
	}
	return nil
}

func (r *ResolverService) invalidateAnalytics(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeletePattern(ctx, analyticsKeyPattern); err != nil {
		r.logger.Warnf("Failed to invalidate analytics cache: %v", err)
	}
}
