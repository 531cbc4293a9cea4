package oddsmath

// Quote is one bookmaker's American price for a single prop selection.
type Quote struct {
	Bookmaker string
	Odds      float64
}

// BestPrice returns the quote with the highest payout for the bettor.
// For American odds that is simply the largest value: +120 beats +110,
// and -105 beats -115.
func BestPrice(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}

	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Odds > best.Odds {
			best = q
		}
	}
	return best, true
}

// CrossBookEdge computes the edge of the best available price against
// the consensus implied probability of the remaining books:
//
//	edge = (fair / implied at best price) - 1
//
// It requires quotes from at least two distinct bookmakers; with fewer
// there is no comparison to ground the edge in, and the honest answer
// is zero. Negative edges are reported as zero for the same reason:
// the system never advertises a disadvantage as an advantage.
func CrossBookEdge(quotes []Quote) float64 {
	if countBookmakers(quotes) < 2 {
		return 0
	}

	best, ok := BestPrice(quotes)
	if !ok {
		return 0
	}

	bestImplied, err := AmericanToImpliedProbability(best.Odds)
	if err != nil {
		return 0
	}

	var sum float64
	var n int
	for _, q := range quotes {
		if q.Bookmaker == best.Bookmaker {
			continue
		}
		implied, err := AmericanToImpliedProbability(q.Odds)
		if err != nil {
			continue
		}
		sum += implied
		n++
	}
	if n == 0 {
		return 0
	}

	consensus := sum / float64(n)
	edge := (consensus / bestImplied) - 1.0
	if edge < 0 {
		return 0
	}
	return edge
}

func countBookmakers(quotes []Quote) int {
	seen := make(map[string]bool, len(quotes))
	for _, q := range quotes {
		seen[q.Bookmaker] = true
	}
	return len(seen)
}
