package oddsmath

import (
	"fmt"
)

// RemoveVigMultiplicative removes vig from a two-way market by
// normalizing both implied probabilities so they sum to 1.0.
//
// Side A: -110 (52.38% implied) | Side B: -110 (52.38% implied)
// Overround: 104.76% → Fair: 50% / 50%
func RemoveVigMultiplicative(prob1, prob2 float64) (fair1, fair2 float64, err error) {
	if prob1 <= 0 || prob1 >= 1 || prob2 <= 0 || prob2 >= 1 {
		return 0, 0, fmt.Errorf("probabilities must be between 0 and 1")
	}

	totalProb := prob1 + prob2
	if totalProb <= 1.0 {
		return 0, 0, fmt.Errorf("no vig detected: probabilities sum to <= 1.0")
	}

	fair1 = prob1 / totalProb
	fair2 = prob2 / totalProb

	return fair1, fair2, nil
}

// VigAdjustedProbability converts an over/under American odds pair into
// the fair win probability of the over side (1 - it for the under).
// Unlike RemoveVigMultiplicative it accepts pairs whose implied
// probabilities sum to 1.0 or less: the pair may combine best prices
// from different books, and such a synthetic market can hold no vig.
func VigAdjustedProbability(overOdds, underOdds float64) (float64, error) {
	overImplied, err := AmericanToImpliedProbability(overOdds)
	if err != nil {
		return 0, fmt.Errorf("over odds: %w", err)
	}

	underImplied, err := AmericanToImpliedProbability(underOdds)
	if err != nil {
		return 0, fmt.Errorf("under odds: %w", err)
	}

	return overImplied / (overImplied + underImplied), nil
}
