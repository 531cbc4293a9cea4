package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/pkg/database"
)

type OddsCacheStore struct {
	db *database.DB
}

func NewOddsCacheStore(db *database.DB) *OddsCacheStore {
	return &OddsCacheStore{db: db}
}

var cacheUpsertColumns = []string{
	"sport", "game_id", "player_name", "prop_type", "prediction", "threshold",
	"game_time", "odds", "probability", "edge", "confidence", "quality_score",
	"book_odds", "fetched_at", "expires_at", "is_stale",
}

// Put upserts cache entries by prop id. A refresh replaces the previous
// snapshot in place rather than inserting a duplicate row.
func (s *OddsCacheStore) Put(ctx context.Context, entries []models.PropOddsCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prop_id"}},
		DoUpdates: clause.AssignmentColumns(cacheUpsertColumns),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("upsert odds cache entries: %w", err)
	}
	return nil
}

// FreshForToday returns unexpired, non-stale entries for the sport whose
// games fall within the local calendar day around now.
func (s *OddsCacheStore) FreshForToday(ctx context.Context, sport models.Sport, now time.Time) ([]models.PropOddsCacheEntry, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var entries []models.PropOddsCacheEntry
	err := s.db.WithContext(ctx).
		Where("sport = ?", sport).
		Where("game_time >= ? AND game_time < ?", dayStart, dayEnd).
		Where("expires_at > ?", now).
		Where("is_stale = ?", false).
		Order("game_time asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("fetch fresh cache for %s: %w", sport, err)
	}
	return entries, nil
}

// MarkStale flips the stale flag on every entry past its expiry.
// Idempotent; returns the number of rows flipped this pass.
func (s *OddsCacheStore) MarkStale(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.PropOddsCacheEntry{}).
		Where("expires_at <= ? AND is_stale = ?", now, false).
		Update("is_stale", true)
	if res.Error != nil {
		return 0, fmt.Errorf("mark stale entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeOlderThan hard-deletes entries whose game started before the
// cutoff. Retention only; reads never see these anyway.
func (s *OddsCacheStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("game_time < ?", cutoff).
		Delete(&models.PropOddsCacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge old cache entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CacheStats summarizes cache health for the dashboard.
type CacheStats struct {
	Total           int64   `json:"total"`
	Fresh           int64   `json:"fresh"`
	Stale           int64   `json:"stale"`
	FreshPercentage float64 `json:"fresh_percentage"`
}

func (s *OddsCacheStore) Stats(ctx context.Context, now time.Time) (*CacheStats, error) {
	var stats CacheStats

	if err := s.db.WithContext(ctx).Model(&models.PropOddsCacheEntry{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count cache entries: %w", err)
	}
	err := s.db.WithContext(ctx).Model(&models.PropOddsCacheEntry{}).
		Where("expires_at > ? AND is_stale = ?", now, false).
		Count(&stats.Fresh).Error
	if err != nil {
		return nil, fmt.Errorf("count fresh entries: %w", err)
	}
	stats.Stale = stats.Total - stats.Fresh

	if stats.Total > 0 {
		stats.FreshPercentage = float64(stats.Fresh) / float64(stats.Total) * 100
	}
	return &stats, nil
}
