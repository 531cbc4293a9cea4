package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/store"
	"github.com/jcreedon/prop-insights/pkg/config"
)

// winPayout is the profit on a one-unit stake at standard -110 pricing.
// The ROI aggregate deliberately uses this flat figure instead of each
// record's stored odds; per-record odds only matter in per-record review.
const winPayout = 0.91

// Breakdown is one segment's resolved-record tally.
type Breakdown struct {
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Pushes    int     `json:"pushes"`
	Accuracy  float64 `json:"accuracy"`
}

// ValidationStats is the read-side rollup over completed records.
type ValidationStats struct {
	Total      int                   `json:"total"`
	Correct    int                   `json:"correct"`
	Incorrect  int                   `json:"incorrect"`
	Pushes     int                   `json:"pushes"`
	Accuracy   float64               `json:"accuracy"`
	AvgEdge    float64               `json:"avg_edge"`
	ROI        float64               `json:"roi"`
	ByPropType map[string]*Breakdown `json:"by_prop_type"`
	BySource   map[string]*Breakdown `json:"by_source"`
	ByPlayer   map[string]*Breakdown `json:"by_player"`
	ByEdge     map[string]*Breakdown `json:"by_edge"`
}

// Insight flags a prop type the system is beating or losing to, with a
// multiplier downstream generation can apply to its confidence.
type Insight struct {
	PropType             string  `json:"prop_type"`
	Kind                 string  `json:"kind"` // "success" or "warning"
	Accuracy             float64 `json:"accuracy"`
	SampleSize           int     `json:"sample_size"`
	ConfidenceMultiplier float64 `json:"confidence_multiplier"`
}

const (
	InsightSuccess = "success"
	InsightWarning = "warning"

	successMultiplier = 1.2
	warningMultiplier = 0.8
)

// AnalyticsService computes accuracy, ROI, and insight rollups over
// completed prediction records. Pure reads; results are redis-cached
// with a short TTL and invalidated by resolution sweeps.
type AnalyticsService struct {
	store  *store.PropStore
	cache  *CacheService
	cfg    *config.Config
	logger *logrus.Logger
}

func NewAnalyticsService(propStore *store.PropStore, cache *CacheService, cfg *config.Config, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:  propStore,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Stats computes the validation rollup for records matching the filter.
func (a *AnalyticsService) Stats(ctx context.Context, filter store.CompletedFilter) (*ValidationStats, error) {
	cacheKey := ValidationStatsCacheKey(filterHash(filter))
	var cached ValidationStats
	if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	records, err := a.store.Completed(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := a.compute(records, filter.Sport == "")

	ttl := time.Duration(a.cfg.AnalyticsCacheExpiration) * time.Second
	if err := a.cache.Set(ctx, cacheKey, stats, ttl); err != nil {
		a.logger.Warnf("Failed to cache validation stats: %v", err)
	}

	return stats, nil
}

func (a *AnalyticsService) compute(records []models.PropPrediction, mixedSports bool) *ValidationStats {
	stats := &ValidationStats{
		ByPropType: make(map[string]*Breakdown),
		BySource:   make(map[string]*Breakdown),
		ByPlayer:   make(map[string]*Breakdown),
		ByEdge:     make(map[string]*Breakdown),
	}

	var edgeSum float64
	playerTallies := make(map[string]*Breakdown)

	for _, r := range records {
		if r.Result == nil {
			continue
		}
		stats.Total++
		edgeSum += r.Edge

		typeKey := r.PropType
		if mixedSports {
			typeKey = fmt.Sprintf("%s:%s", r.Sport, r.PropType)
		}

		tally(stats.ByPropType, typeKey, *r.Result)
		tally(stats.BySource, string(r.Source), *r.Result)
		tally(playerTallies, r.PlayerName, *r.Result)
		tally(stats.ByEdge, edgeBucket(r.Edge), *r.Result)

		switch *r.Result {
		case models.ResultCorrect:
			stats.Correct++
		case models.ResultIncorrect:
			stats.Incorrect++
		case models.ResultPush:
			stats.Pushes++
		}
	}

	// Pushes are excluded from the accuracy denominator: neither a win
	// nor a loss
	decided := stats.Correct + stats.Incorrect
	if decided > 0 {
		stats.Accuracy = float64(stats.Correct) / float64(decided)
		stats.ROI = (float64(stats.Correct)*winPayout - float64(stats.Incorrect)) / float64(decided)
	}
	if stats.Total > 0 {
		stats.AvgEdge = edgeSum / float64(stats.Total)
	}

	// Small player samples are noise, not signal
	for player, b := range playerTallies {
		if b.Correct+b.Incorrect >= a.cfg.PlayerBreakdownMinSamples {
			stats.ByPlayer[player] = b
		}
	}

	return stats
}

// Insights flags prop types whose resolved accuracy clears the success
// threshold or falls under the warning threshold over enough samples.
func (a *AnalyticsService) Insights(ctx context.Context) ([]Insight, error) {
	cacheKey := InsightsCacheKey()
	var cached []Insight
	if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	records, err := a.store.Completed(ctx, store.CompletedFilter{})
	if err != nil {
		return nil, err
	}

	stats := a.compute(records, true)

	insights := make([]Insight, 0)
	for propType, b := range stats.ByPropType {
		decided := b.Correct + b.Incorrect
		if decided < a.cfg.InsightMinSamples {
			continue
		}
		switch {
		case b.Accuracy >= a.cfg.InsightSuccessAccuracy:
			insights = append(insights, Insight{
				PropType:             propType,
				Kind:                 InsightSuccess,
				Accuracy:             b.Accuracy,
				SampleSize:           decided,
				ConfidenceMultiplier: successMultiplier,
			})
		case b.Accuracy < a.cfg.InsightWarningAccuracy:
			insights = append(insights, Insight{
				PropType:             propType,
				Kind:                 InsightWarning,
				Accuracy:             b.Accuracy,
				SampleSize:           decided,
				ConfidenceMultiplier: warningMultiplier,
			})
		}
	}

	ttl := time.Duration(a.cfg.AnalyticsCacheExpiration) * time.Second
	if err := a.cache.Set(ctx, cacheKey, insights, ttl); err != nil {
		a.logger.Warnf("Failed to cache insights: %v", err)
	}

	return insights, nil
}

func tally(m map[string]*Breakdown, key string, result models.Result) {
	b, ok := m[key]
	if !ok {
		b = &Breakdown{}
		m[key] = b
	}
	b.Total++
	switch result {
	case models.ResultCorrect:
		b.Correct++
	case models.ResultIncorrect:
		b.Incorrect++
	case models.ResultPush:
		b.Pushes++
	}
	if decided := b.Correct + b.Incorrect; decided > 0 {
		b.Accuracy = float64(b.Correct) / float64(decided)
	}
}

func edgeBucket(edge float64) string {
	switch {
	case edge <= 0:
		return "none"
	case edge < 0.02:
		return "under_2pct"
	case edge < 0.05:
		return "2_to_5pct"
	default:
		return "over_5pct"
	}
}

func filterHash(filter store.CompletedFilter) string {
	from, to := "", ""
	if filter.From != nil {
		from = filter.From.Format("2006-01-02")
	}
	if filter.To != nil {
		to = filter.To.Format("2006-01-02")
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", filter.Sport, filter.PropType, filter.Player, from, to)
}
