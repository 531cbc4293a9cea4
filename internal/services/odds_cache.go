package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/oddsmath"
	"github.com/jcreedon/prop-insights/internal/providers"
	"github.com/jcreedon/prop-insights/internal/scoring"
	"github.com/jcreedon/prop-insights/internal/store"
	"github.com/jcreedon/prop-insights/pkg/config"
)

// PropOddsCacheService bounds paid vendor calls by serving recent prop
// odds snapshots until they expire, either by TTL or by the game
// getting too close to start.
type PropOddsCacheService struct {
	store   *store.OddsCacheStore
	fetcher providers.PropOddsFetcher
	cfg     *config.Config
	logger  *logrus.Logger
}

func NewPropOddsCacheService(cacheStore *store.OddsCacheStore, fetcher providers.PropOddsFetcher, cfg *config.Config, logger *logrus.Logger) *PropOddsCacheService {
	return &PropOddsCacheService{
		store:   cacheStore,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// CacheResult is what cache readers get: either a fresh snapshot or the
// signal to fall back to a live vendor fetch.
type CacheResult struct {
	HasFreshCache bool                        `json:"has_fresh_cache"`
	Entries       []models.PropOddsCacheEntry `json:"entries"`
	AgeMinutes    float64                     `json:"age_minutes"`
}

// Get returns today's unexpired entries for the sport. An empty result
// means the caller should refresh from the vendor; staleness is a state,
// not an error.
func (s *PropOddsCacheService) Get(ctx context.Context, sport models.Sport) (*CacheResult, error) {
	now := time.Now()
	entries, err := s.store.FreshForToday(ctx, sport, now)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &CacheResult{HasFreshCache: false, Entries: []models.PropOddsCacheEntry{}}, nil
	}

	newest := entries[0].FetchedAt
	for _, e := range entries[1:] {
		if e.FetchedAt.After(newest) {
			newest = e.FetchedAt
		}
	}

	return &CacheResult{
		HasFreshCache: true,
		Entries:       entries,
		AgeMinutes:    now.Sub(newest).Minutes(),
	}, nil
}

// Put stores entries with expiry computed as the earlier of TTL and the
// pre-game lockout. Upsert semantics by prop id.
func (s *PropOddsCacheService) Put(ctx context.Context, entries []models.PropOddsCacheEntry) error {
	now := time.Now()
	for i := range entries {
		if entries[i].FetchedAt.IsZero() {
			entries[i].FetchedAt = now
		}
		entries[i].ExpiresAt = models.CacheExpiry(entries[i].FetchedAt, entries[i].GameTime, s.cfg.OddsCacheTTL, s.cfg.PreGameLockout)
		entries[i].IsStale = !entries[i].ExpiresAt.After(now)
	}
	return s.store.Put(ctx, entries)
}

// Refresh pulls the vendor odds board for the sport, computes best-price
// vig-adjusted probabilities and cross-book edges, and caches the scored
// entries. This is the only pipeline that produces a non-zero edge.
func (s *PropOddsCacheService) Refresh(ctx context.Context, sport models.Sport) (int, error) {
	quotes, err := s.fetcher.FetchPropOdds(ctx, sport)
	if err != nil {
		return 0, fmt.Errorf("refresh prop odds for %s: %w", sport, err)
	}

	entries := buildCacheEntries(sport, quotes, time.Now())
	if err := s.Put(ctx, entries); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"sport":   sport,
		"quotes":  len(quotes),
		"entries": len(entries),
	}).Info("Refreshed prop odds cache")

	return len(entries), nil
}

// MarkStale flips expired entries; idempotent.
func (s *PropOddsCacheService) MarkStale(ctx context.Context) (int64, error) {
	return s.store.MarkStale(ctx, time.Now())
}

// Purge hard-deletes entries whose game is past the retention window.
func (s *PropOddsCacheService) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.CacheRetentionDays)
	return s.store.PurgeOlderThan(ctx, cutoff)
}

func (s *PropOddsCacheService) Stats(ctx context.Context) (*store.CacheStats, error) {
	return s.store.Stats(ctx, time.Now())
}

// marketKey groups vendor quotes into a single two-way prop market.
type marketKey struct {
	GameID     string
	PlayerName string
	Market     string
	Threshold  float64
}

type marketQuotes struct {
	GameTime time.Time
	Over     []oddsmath.Quote
	Under    []oddsmath.Quote
	Books    map[string][]models.BookQuote // keyed by selection
}

// buildCacheEntries collapses the flat vendor feed into one cache entry
// per prop side, priced at the best available book.
func buildCacheEntries(sport models.Sport, quotes []providers.VendorPropOdds, fetchedAt time.Time) []models.PropOddsCacheEntry {
	markets := make(map[marketKey]*marketQuotes)

	for _, q := range quotes {
		if q.Selection != string(models.PredictionOver) && q.Selection != string(models.PredictionUnder) {
			continue
		}
		key := marketKey{GameID: q.GameID, PlayerName: q.PlayerName, Market: q.Market, Threshold: q.Threshold}
		m, ok := markets[key]
		if !ok {
			m = &marketQuotes{GameTime: q.GameTime, Books: make(map[string][]models.BookQuote)}
			markets[key] = m
		}
		quote := oddsmath.Quote{Bookmaker: q.Bookmaker, Odds: q.Odds}
		if q.Selection == string(models.PredictionOver) {
			m.Over = append(m.Over, quote)
		} else {
			m.Under = append(m.Under, quote)
		}
		m.Books[q.Selection] = append(m.Books[q.Selection], models.BookQuote{
			Bookmaker:  q.Bookmaker,
			Odds:       q.Odds,
			LastUpdate: q.LastUpdate,
		})
	}

	var entries []models.PropOddsCacheEntry
	for key, m := range markets {
		bestOver, okOver := oddsmath.BestPrice(m.Over)
		bestUnder, okUnder := oddsmath.BestPrice(m.Under)
		if !okOver || !okUnder {
			// One-sided markets cannot be de-vigged; skip them
			continue
		}

		fairOver, err := oddsmath.VigAdjustedProbability(bestOver.Odds, bestUnder.Odds)
		if err != nil {
			continue
		}

		sides := []struct {
			prediction  models.Prediction
			best        oddsmath.Quote
			sideQuotes  []oddsmath.Quote
			probability float64
		}{
			{models.PredictionOver, bestOver, m.Over, fairOver},
			{models.PredictionUnder, bestUnder, m.Under, 1 - fairOver},
		}

		for _, side := range sides {
			edge := oddsmath.CrossBookEdge(side.sideQuotes)
			confidence := confidenceFromProbability(side.probability)
			bookJSON, _ := json.Marshal(m.Books[string(side.prediction)])

			entries = append(entries, models.PropOddsCacheEntry{
				PropID:       cachePropID(key.PlayerName, key.Market, key.GameID, side.prediction),
				Sport:        sport,
				GameID:       key.GameID,
				PlayerName:   key.PlayerName,
				PropType:     key.Market,
				Prediction:   side.prediction,
				Threshold:    key.Threshold,
				GameTime:     m.GameTime,
				Odds:         side.best.Odds,
				Probability:  side.probability,
				Edge:         edge,
				Confidence:   confidence,
				QualityScore: scoring.Score(side.probability, edge, confidence),
				BookOdds:     bookJSON,
				FetchedAt:    fetchedAt,
			})
		}
	}

	return entries
}

func cachePropID(playerName, market, gameID string, prediction models.Prediction) string {
	return fmt.Sprintf("%s_%s", DerivePropID(playerName, market, gameID), prediction)
}

// confidenceFromProbability maps a fair win probability onto the ordinal
// confidence scale used for scoring.
func confidenceFromProbability(p float64) models.Confidence {
	switch {
	case p >= 0.65:
		return models.ConfidenceVeryHigh
	case p >= 0.60:
		return models.ConfidenceHigh
	case p >= 0.55:
		return models.ConfidenceMedium
	case p >= 0.50:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}
