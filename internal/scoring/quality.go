// Package scoring ranks prop predictions on a 0-100 composite scale.
// Win probability dominates the score; edge is a minority bonus so that
// records without a real comparative-odds signal are not outranked by
// fabricated edges.
package scoring

import (
	"math"

	"github.com/jcreedon/prop-insights/internal/models"
)

const (
	probabilityWeight = 0.70
	confidenceWeight  = 0.20
	edgeWeight        = 0.10
)

var confidenceWeights = map[models.Confidence]float64{
	models.ConfidenceVeryLow:  0.2,
	models.ConfidenceLow:      0.4,
	models.ConfidenceMedium:   0.6,
	models.ConfidenceHigh:     0.8,
	models.ConfidenceVeryHigh: 1.0,
}

// Tier labels, highest first
const (
	TierElite       = "elite"
	TierPremium     = "premium"
	TierSolid       = "solid"
	TierSpeculative = "speculative"
	TierLongshot    = "longshot"
)

// Score computes the quality score for a prediction from its win
// probability, edge, and confidence level. Inputs are clamped to [0,1];
// the result is rounded to one decimal and always lands in [0,100].
func Score(probability, edge float64, confidence models.Confidence) float64 {
	p := clamp01(probability)
	e := clamp01(edge)

	w, ok := confidenceWeights[confidence]
	if !ok {
		w = confidenceWeights[models.ConfidenceMedium]
	}

	score := 100 * (probabilityWeight*p + confidenceWeight*w + edgeWeight*e)
	return math.Round(score*10) / 10
}

// Tier maps a quality score to its presentation label.
func Tier(score float64) string {
	switch {
	case score >= 70:
		return TierElite
	case score >= 55:
		return TierPremium
	case score >= 40:
		return TierSolid
	case score >= 25:
		return TierSpeculative
	default:
		return TierLongshot
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
