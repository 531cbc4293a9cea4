package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/providers"
	"github.com/jcreedon/prop-insights/internal/store"
	"github.com/jcreedon/prop-insights/pkg/config"
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

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		OddsCacheTTL:              30 * time.Minute,
		PreGameLockout:            60 * time.Minute,
		CacheRetentionDays:        7,
		SweepBatchSize:            25,
		InsightMinSamples:         5,
		InsightSuccessAccuracy:    0.55,
		InsightWarningAccuracy:    0.45,
		PlayerBreakdownMinSamples: 3,
		AnalyticsCacheExpiration:  300,
	}
}

// fakeGames serves canned schedule lookups.
type fakeGames struct {
	games map[string]*models.Game
}

func (f *fakeGames) LookupGame(_ context.Context, gameID string) (*models.Game, error) {
	game, ok := f.games[gameID]
	if !ok {
		return nil, nil
	}
	return game, nil
}

// fakeStats serves canned box score stats keyed by player name, with
// optional per-player failures.
type fakeStats struct {
	values map[string]float64
	fails  map[string]bool
}

func (f *fakeStats) FetchActualStat(_ context.Context, _ models.Sport, _, playerName, _ string) (*float64, error) {
	if f.fails[playerName] {
		return nil, fmt.Errorf("vendor timeout")
	}
	v, ok := f.values[playerName]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// fakeOddsFeed serves a canned prop odds board.
type fakeOddsFeed struct {
	quotes []providers.VendorPropOdds
	err    error
}

func (f *fakeOddsFeed) FetchPropOdds(_ context.Context, _ models.Sport) ([]providers.VendorPropOdds, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func seedPending(t *testing.T, s *store.PropStore, propID, player, gameID string) {
	t.Helper()
	require.NoError(t, s.Upsert(context.Background(), &models.PropPrediction{
		PropID:     propID,
		GameID:     gameID,
		PlayerName: player,
		PropType:   "hits",
		Sport:      models.SportMLB,
		Source:     models.SourceSystemGenerated,
		Prediction: models.PredictionOver,
		Threshold:  1.5,
		Confidence: models.ConfidenceMedium,
		Status:     models.StatusPending,
		Timestamp:  time.Now().UTC(),
	}))
}
