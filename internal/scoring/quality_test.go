package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcreedon/prop-insights/internal/models"
)

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		edge        float64
		confidence  models.Confidence
		expected    float64
	}{
		{"coin flip medium no edge", 0.5, 0, models.ConfidenceMedium, 47.0},
		{"strong favorite high confidence", 0.8, 0.05, models.ConfidenceHigh, 72.5},
		{"max everything", 1.0, 1.0, models.ConfidenceVeryHigh, 100.0},
		{"min everything", 0.0, 0.0, models.ConfidenceVeryLow, 4.0},
		{"edge only matters a little", 0.5, 0.10, models.ConfidenceMedium, 48.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.probability, tt.edge, tt.confidence), 0.001)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	levels := []models.Confidence{
		models.ConfidenceVeryLow,
		models.ConfidenceLow,
		models.ConfidenceMedium,
		models.ConfidenceHigh,
		models.ConfidenceVeryHigh,
	}

	for p := -0.5; p <= 1.5; p += 0.25 {
		for e := -0.5; e <= 1.5; e += 0.25 {
			for _, c := range levels {
				s := Score(p, e, c)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 100.0)
			}
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	// Holding edge and confidence fixed, a higher probability never scores lower
	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.05 {
		s := Score(p, 0.02, models.ConfidenceMedium)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}

	// Same for edge
	prev = -1.0
	for e := 0.0; e <= 1.0; e += 0.05 {
		s := Score(0.55, e, models.ConfidenceHigh)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}

	// And across confidence levels in ordinal order
	ordered := []models.Confidence{
		models.ConfidenceVeryLow,
		models.ConfidenceLow,
		models.ConfidenceMedium,
		models.ConfidenceHigh,
		models.ConfidenceVeryHigh,
	}
	prev = -1.0
	for _, c := range ordered {
		s := Score(0.55, 0.02, c)
		assert.Greater(t, s, prev)
		prev = s
	}
}

func TestUnknownConfidenceTreatedAsMedium(t *testing.T) {
	assert.Equal(t, Score(0.6, 0, models.ConfidenceMedium), Score(0.6, 0, models.Confidence("bogus")))
}

func TestTier(t *testing.T) {
	tests := []struct {
		score float64
		tier  string
	}{
		{85, TierElite},
		{70, TierElite},
		{69.9, TierPremium},
		{55, TierPremium},
		{47, TierSolid},
		{40, TierSolid},
		{30, TierSpeculative},
		{25, TierSpeculative},
		{10, TierLongshot},
		{0, TierLongshot},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, Tier(tt.score), "score %.1f", tt.score)
	}
}
