// Package oddsmath converts between American odds, decimal odds, and
// implied probabilities, and derives fair (no-vig) probabilities and
// cross-bookmaker edges for two-way prop markets.
package oddsmath

import (
	"fmt"
	"math"
)

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american float64) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		return (american / 100.0) + 1.0, nil
	}

	return (100.0 / -american) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -150
func DecimalToAmerican(decimal float64) (float64, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 1.0")
	}

	if decimal >= 2.0 {
		return math.Round((decimal - 1.0) * 100.0), nil
	}

	return math.Round(-100.0 / (decimal - 1.0)), nil
}

// DecimalToImpliedProbability converts decimal odds to implied probability
// Decimal 2.00 → 0.50 (50%)
func DecimalToImpliedProbability(decimal float64) (float64, error) {
	if decimal <= 0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 0")
	}

	return 1.0 / decimal, nil
}

// AmericanToImpliedProbability converts American odds directly to implied probability
func AmericanToImpliedProbability(american float64) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}

	return DecimalToImpliedProbability(decimal)
}
