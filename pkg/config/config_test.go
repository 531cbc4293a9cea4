package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "*/30 * * * *", cfg.SweepSchedule)
	assert.Equal(t, "*/10 * * * *", cfg.CacheSweepSchedule)
	assert.Equal(t, "0 3 * * *", cfg.RetentionSchedule)
	assert.Equal(t, 25, cfg.SweepBatchSize)
	assert.Equal(t, 7, cfg.CacheRetentionDays)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RETENTION_SCHEDULE", "30 4 * * *")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "30 4 * * *", cfg.RetentionSchedule)
}
