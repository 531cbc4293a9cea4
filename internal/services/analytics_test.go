package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/store"
)

func seedCompleted(t *testing.T, s *store.PropStore, propID, player, propType string, sport models.Sport, result models.Result, edge float64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &models.PropPrediction{
		PropID:     propID,
		GameID:     string(sport) + "_g1",
		PlayerName: player,
		PropType:   propType,
		Sport:      sport,
		Source:     models.SourceSystemGenerated,
		Prediction: models.PredictionOver,
		Threshold:  1.5,
		Edge:       edge,
		Confidence: models.ConfidenceMedium,
		Status:     models.StatusPending,
		Timestamp:  time.Now().UTC(),
	}))

	actual := 2.0
	if result == models.ResultIncorrect {
		actual = 1.0
	} else if result == models.ResultPush {
		actual = 1.5
	}
	ok, err := s.Complete(ctx, propID, actual, result, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)
}

func newAnalytics(t *testing.T) (*store.PropStore, *AnalyticsService) {
	db := newTestDB(t)
	propStore := store.NewPropStore(db)
	analytics := NewAnalyticsService(propStore, NewCacheService(nil), testConfig(), testLogger())
	return propStore, analytics
}

func TestStatsAccuracyExcludesPushes(t *testing.T) {
	propStore, analytics := newAnalytics(t)

	seedCompleted(t, propStore, "p1", "A", "hits", models.SportMLB, models.ResultCorrect, 0)
	seedCompleted(t, propStore, "p2", "B", "hits", models.SportMLB, models.ResultCorrect, 0)
	seedCompleted(t, propStore, "p3", "C", "hits", models.SportMLB, models.ResultIncorrect, 0)
	seedCompleted(t, propStore, "p4", "D", "hits", models.SportMLB, models.ResultPush, 0)

	stats, err := analytics.Stats(context.Background(), store.CompletedFilter{})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Correct)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 1, stats.Pushes)
	// 2 / (2 + 1): pushes are neither wins nor losses
	assert.InDelta(t, 0.6667, stats.Accuracy, 0.001)
	// (2*0.91 - 1) / 3
	assert.InDelta(t, 0.2733, stats.ROI, 0.001)
}

func TestStatsSportPrefixedGrouping(t *testing.T) {
	propStore, analytics := newAnalytics(t)

	seedCompleted(t, propStore, "p1", "A", "hits", models.SportMLB, models.ResultCorrect, 0)
	seedCompleted(t, propStore, "p2", "B", "passing_yards", models.SportNFL, models.ResultIncorrect, 0)

	// Mixed sports: prop type keys carry the sport prefix
	stats, err := analytics.Stats(context.Background(), store.CompletedFilter{})
	require.NoError(t, err)
	assert.Contains(t, stats.ByPropType, "mlb:hits")
	assert.Contains(t, stats.ByPropType, "nfl:passing_yards")

	// Single-sport filter: plain prop type keys
	stats, err = analytics.Stats(context.Background(), store.CompletedFilter{Sport: models.SportMLB})
	require.NoError(t, err)
	assert.Contains(t, stats.ByPropType, "hits")
	assert.Equal(t, 1, stats.Total)
}

func TestStatsPlayerBreakdownMinimumSamples(t *testing.T) {
	propStore, analytics := newAnalytics(t)

	// Two resolved props is below the three-sample floor
	seedCompleted(t, propStore, "p1", "Small Sample", "hits", models.SportMLB, models.ResultCorrect, 0)
	seedCompleted(t, propStore, "p2", "Small Sample", "runs", models.SportMLB, models.ResultCorrect, 0)

	for i, result := range []models.Result{models.ResultCorrect, models.ResultCorrect, models.ResultIncorrect} {
		seedCompleted(t, propStore, []string{"q1", "q2", "q3"}[i], "Big Sample", "hits", models.SportMLB, result, 0)
	}

	stats, err := analytics.Stats(context.Background(), store.CompletedFilter{})
	require.NoError(t, err)

	assert.NotContains(t, stats.ByPlayer, "Small Sample")
	require.Contains(t, stats.ByPlayer, "Big Sample")
	assert.InDelta(t, 0.6667, stats.ByPlayer["Big Sample"].Accuracy, 0.001)
}

func TestStatsAvgEdgeAndBuckets(t *testing.T) {
	propStore, analytics := newAnalytics(t)

	seedCompleted(t, propStore, "p1", "A", "hits", models.SportMLB, models.ResultCorrect, 0)
	seedCompleted(t, propStore, "p2", "B", "hits", models.SportMLB, models.ResultCorrect, 0.04)

	stats, err := analytics.Stats(context.Background(), store.CompletedFilter{})
	require.NoError(t, err)

	assert.InDelta(t, 0.02, stats.AvgEdge, 0.001)
	assert.Contains(t, stats.ByEdge, "none")
	assert.Contains(t, stats.ByEdge, "2_to_5pct")
}

func TestInsightsThresholds(t *testing.T) {
	propStore, analytics := newAnalytics(t)

	// hits: 4/5 correct -> success insight
	results := []models.Result{
		models.ResultCorrect, models.ResultCorrect, models.ResultCorrect,
		models.ResultCorrect, models.ResultIncorrect,
	}
	for i, result := range results {
		seedCompleted(t, propStore, []string{"h1", "h2", "h3", "h4", "h5"}[i], "A", "hits", models.SportMLB, result, 0)
	}

	// runs: 1/5 correct -> warning insight
	results = []models.Result{
		models.ResultCorrect, models.ResultIncorrect, models.ResultIncorrect,
		models.ResultIncorrect, models.ResultIncorrect,
	}
	for i, result := range results {
		seedCompleted(t, propStore, []string{"r1", "r2", "r3", "r4", "r5"}[i], "B", "runs", models.SportMLB, result, 0)
	}

	// rbis: too few samples for any insight
	seedCompleted(t, propStore, "b1", "C", "rbis", models.SportMLB, models.ResultCorrect, 0)

	insights, err := analytics.Insights(context.Background())
	require.NoError(t, err)
	require.Len(t, insights, 2)

	byType := make(map[string]Insight)
	for _, insight := range insights {
		byType[insight.PropType] = insight
	}

	success := byType["mlb:hits"]
	assert.Equal(t, InsightSuccess, success.Kind)
	assert.InDelta(t, 0.8, success.Accuracy, 0.001)
	assert.Equal(t, 1.2, success.ConfidenceMultiplier)

	warning := byType["mlb:runs"]
	assert.Equal(t, InsightWarning, warning.Kind)
	assert.Equal(t, 0.8, warning.ConfidenceMultiplier)
}

func TestStatsEmptySet(t *testing.T) {
	_, analytics := newAnalytics(t)

	stats, err := analytics.Stats(context.Background(), store.CompletedFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.Accuracy)
	assert.Equal(t, 0.0, stats.ROI)
}
