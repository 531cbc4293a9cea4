// Package store wraps the relational tables behind the prediction
// lifecycle. All writes are expressed as atomic upserts or guarded
// status transitions so concurrent sweeps converge instead of racing.
package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/pkg/database"
)

type PropStore struct {
	db *database.DB
}

func NewPropStore(db *database.DB) *PropStore {
	return &PropStore{db: db}
}

// mutable prediction fields refreshed on re-record; lifecycle columns
// (status, result, actual_value, completed_at) are deliberately absent
var upsertColumns = []string{
	"player_name", "prop_type", "sport", "source", "parlay_id", "player_id",
	"prediction", "threshold", "projected_value", "odds",
	"probability", "edge", "confidence", "quality_score",
}

// Upsert inserts the record, or refreshes its prediction fields when a
// row with the same prop id already exists. In-flight lifecycle state is
// never clobbered by re-recording.
func (s *PropStore) Upsert(ctx context.Context, record *models.PropPrediction) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prop_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("upsert prop %s: %w", record.PropID, err)
	}
	return nil
}

// FindByPropID returns the record, or nil when no such prop exists.
func (s *PropStore) FindByPropID(ctx context.Context, propID string) (*models.PropPrediction, error) {
	var record models.PropPrediction
	err := s.db.WithContext(ctx).Where("prop_id = ?", propID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find prop %s: %w", propID, err)
	}
	return &record, nil
}

// PendingBatch returns one page of pending records, oldest first, so a
// bounded sweep invocation always works the backlog from the front.
func (s *PropStore) PendingBatch(ctx context.Context, offset, limit int) ([]models.PropPrediction, error) {
	var records []models.PropPrediction
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("timestamp asc").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("fetch pending batch: %w", err)
	}
	return records, nil
}

// CountPending returns the size of the unresolved backlog.
func (s *PropStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PropPrediction{}).
		Where("status = ?", models.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return count, nil
}

// Complete transitions a pending record to completed with its graded
// result. The status guard makes the transition idempotent: a second
// concurrent sweep finds zero rows to update and reports false.
func (s *PropStore) Complete(ctx context.Context, propID string, actual float64, result models.Result, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.PropPrediction{}).
		Where("prop_id = ? AND status = ?", propID, models.StatusPending).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"result":       result,
			"actual_value": actual,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("complete prop %s: %w", propID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkNeedsReview parks a pending record whose game is over but whose
// stat could not be obtained, so the backlog never grows silently.
func (s *PropStore) MarkNeedsReview(ctx context.Context, propID, note string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.PropPrediction{}).
		Where("prop_id = ? AND status = ?", propID, models.StatusPending).
		Updates(map[string]interface{}{
			"status": models.StatusNeedsReview,
			"note":   note,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark needs_review %s: %w", propID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CompletedFilter narrows read-side queries over resolved records.
type CompletedFilter struct {
	Sport    models.Sport
	PropType string
	Player   string
	From     *time.Time
	To       *time.Time
}

// Completed returns all completed records matching the filter.
func (s *PropStore) Completed(ctx context.Context, filter CompletedFilter) ([]models.PropPrediction, error) {
	query := s.db.WithContext(ctx).Where("status = ?", models.StatusCompleted)

	if filter.Sport != "" {
		query = query.Where("sport = ?", filter.Sport)
	}
	if filter.PropType != "" {
		query = query.Where("prop_type = ?", filter.PropType)
	}
	if filter.Player != "" {
		query = query.Where("player_name = ?", filter.Player)
	}
	if filter.From != nil {
		query = query.Where("completed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("completed_at <= ?", *filter.To)
	}

	var records []models.PropPrediction
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch completed records: %w", err)
	}
	return records, nil
}

// Recent returns the newest records across all statuses, capped by limit.
func (s *PropStore) Recent(ctx context.Context, limit int) ([]models.PropPrediction, error) {
	var records []models.PropPrediction
	err := s.db.WithContext(ctx).
		Order("timestamp desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("fetch recent records: %w", err)
	}
	return records, nil
}
