package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gormDB.AutoMigrate(
		&models.PropPrediction{},
		&models.PropOddsCacheEntry{},
	))

	return &database.DB{DB: gormDB}
}

func pendingRecord(propID string) *models.PropPrediction {
	return &models.PropPrediction{
		PropID:       propID,
		GameID:       "mlb_2025_09_14_nyy_bos",
		PlayerName:   "Aaron Judge",
		PropType:     "hits",
		Sport:        models.SportMLB,
		Source:       models.SourceSystemGenerated,
		Prediction:   models.PredictionOver,
		Threshold:    1.5,
		Probability:  0.55,
		Confidence:   models.ConfidenceMedium,
		QualityScore: 50.5,
		Status:       models.StatusPending,
		Timestamp:    time.Now().UTC(),
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, pendingRecord("p1")))

	updated := pendingRecord("p1")
	updated.Threshold = 2.5
	updated.Probability = 0.60
	require.NoError(t, s.Upsert(ctx, updated))

	var count int64
	db.Model(&models.PropPrediction{}).Count(&count)
	assert.Equal(t, int64(1), count)

	got, err := s.FindByPropID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2.5, got.Threshold)
	assert.Equal(t, 0.60, got.Probability)
}

func TestUpsertPreservesLifecycleState(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, pendingRecord("p1")))

	ok, err := s.Complete(ctx, "p1", 2.0, models.ResultCorrect, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	// Re-recording the same logical prediction must not reopen it
	rerecorded := pendingRecord("p1")
	rerecorded.Probability = 0.48
	require.NoError(t, s.Upsert(ctx, rerecorded))

	got, err := s.FindByPropID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, models.ResultCorrect, *got.Result)
	require.NotNil(t, got.ActualValue)
	assert.Equal(t, 2.0, *got.ActualValue)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 0.48, got.Probability, "prediction fields still refresh")
}

func TestCompleteIsGuarded(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, pendingRecord("p1")))

	ok, err := s.Complete(ctx, "p1", 2.0, models.ResultCorrect, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	// Second resolution attempt finds no pending row to transition
	ok, err = s.Complete(ctx, "p1", 0.0, models.ResultIncorrect, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.FindByPropID(ctx, "p1")
	assert.Equal(t, models.ResultCorrect, *got.Result)

	// Same guard applies to needs_review
	ok, err = s.MarkNeedsReview(ctx, "p1", "stat unavailable")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatusInvariant(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, pendingRecord("p1")))
	require.NoError(t, s.Upsert(ctx, pendingRecord("p2")))

	_, err := s.Complete(ctx, "p2", 3.0, models.ResultCorrect, time.Now().UTC())
	require.NoError(t, err)

	var all []models.PropPrediction
	require.NoError(t, db.Find(&all).Error)
	for _, r := range all {
		if r.Status == models.StatusPending {
			assert.Nil(t, r.Result)
			assert.Nil(t, r.ActualValue)
		}
		if r.Status == models.StatusCompleted {
			assert.NotNil(t, r.Result)
			assert.NotNil(t, r.CompletedAt)
		}
	}
}

func TestFindByPropIDMissing(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)

	got, err := s.FindByPropID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPendingBatchPagination(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		r := pendingRecord(string(rune('a' + i)))
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Upsert(ctx, r))
	}

	first, err := s.PendingBatch(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0].PropID, "oldest first")

	second, err := s.PendingBatch(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "c", second[0].PropID)

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestCompletedFilter(t *testing.T) {
	db := newTestDB(t)
	s := NewPropStore(db)
	ctx := context.Background()

	r1 := pendingRecord("p1")
	r2 := pendingRecord("p2")
	r2.Sport = models.SportNFL
	r2.PropType = "passing_yards"
	require.NoError(t, s.Upsert(ctx, r1))
	require.NoError(t, s.Upsert(ctx, r2))

	_, err := s.Complete(ctx, "p1", 2.0, models.ResultCorrect, time.Now().UTC())
	require.NoError(t, err)
	_, err = s.Complete(ctx, "p2", 210.0, models.ResultIncorrect, time.Now().UTC())
	require.NoError(t, err)

	mlb, err := s.Completed(ctx, CompletedFilter{Sport: models.SportMLB})
	require.NoError(t, err)
	require.Len(t, mlb, 1)
	assert.Equal(t, "p1", mlb[0].PropID)

	all, err := s.Completed(ctx, CompletedFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOddsCacheStore(t *testing.T) {
	db := newTestDB(t)
	s := NewOddsCacheStore(db)
	ctx := context.Background()
	// Fixed mid-morning clock so game times stay inside the local day
	now := time.Date(2025, 9, 14, 10, 0, 0, 0, time.Local)

	entries := []models.PropOddsCacheEntry{
		{
			PropID:    "c1",
			Sport:     models.SportMLB,
			GameID:    "g1",
			GameTime:  now.Add(4 * time.Hour),
			FetchedAt: now,
			ExpiresAt: now.Add(30 * time.Minute),
		},
		{
			PropID:    "c2",
			Sport:     models.SportMLB,
			GameID:    "g2",
			GameTime:  now.Add(5 * time.Hour),
			FetchedAt: now.Add(-time.Hour),
			ExpiresAt: now.Add(-30 * time.Minute), // already expired
		},
	}
	require.NoError(t, s.Put(ctx, entries))

	// Upsert by prop id, not duplicate insert
	entries[0].Odds = -115
	require.NoError(t, s.Put(ctx, entries[:1]))
	var count int64
	db.Model(&models.PropOddsCacheEntry{}).Count(&count)
	assert.Equal(t, int64(2), count)

	fresh, err := s.FreshForToday(ctx, models.SportMLB, now)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "c1", fresh[0].PropID)

	flipped, err := s.MarkStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	// Idempotent: nothing left to flip
	flipped, err = s.MarkStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), flipped)

	stats, err := s.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Fresh)
	assert.Equal(t, int64(1), stats.Stale)
	assert.InDelta(t, 50.0, stats.FreshPercentage, 0.001)

	purged, err := s.PurgeOlderThan(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
}
