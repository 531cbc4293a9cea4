package models

import (
	"time"

	"gorm.io/datatypes"
)

// PropOddsCacheEntry is a short-lived snapshot of vendor prop odds.
// Entries share the prop id key space with PropPrediction but live in
// their own table with an independent lifecycle.
type PropOddsCacheEntry struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PropID string `gorm:"uniqueIndex;not null" json:"prop_id"`
	Sport  Sport  `gorm:"index;not null" json:"sport"`
	GameID string `gorm:"index;not null" json:"game_id"`

	PlayerName string     `json:"player_name"`
	PropType   string     `json:"prop_type"`
	Prediction Prediction `json:"prediction"`
	Threshold  float64    `json:"threshold"`

	GameTime     time.Time      `gorm:"index;not null" json:"game_time"`
	Odds         float64        `json:"odds"`
	Probability  float64        `json:"probability"`
	Edge         float64        `json:"edge"`
	Confidence   Confidence     `gorm:"default:'medium'" json:"confidence"`
	QualityScore float64        `json:"quality_score"`
	BookOdds     datatypes.JSON `json:"book_odds,omitempty"`

	FetchedAt time.Time `gorm:"not null" json:"fetched_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	IsStale   bool      `gorm:"index;default:false" json:"is_stale"`
}

// TableName specifies the table name for GORM
func (PropOddsCacheEntry) TableName() string {
	return "prop_odds_cache"
}

// BookQuote is one bookmaker's price for a prop, kept as provenance for
// the cross-book edge computed from the feed.
type BookQuote struct {
	Bookmaker  string    `json:"bookmaker"`
	Odds       float64   `json:"odds"`
	LastUpdate time.Time `json:"last_update"`
}

// CacheExpiry returns the earlier of fetchedAt+ttl and gameTime-lockout.
// Odds stop being servable once the game is too close to start to act on,
// even inside the TTL window.
func CacheExpiry(fetchedAt, gameTime time.Time, ttl, lockout time.Duration) time.Time {
	byTTL := fetchedAt.Add(ttl)
	byGame := gameTime.Add(-lockout)
	if byGame.Before(byTTL) {
		return byGame
	}
	return byTTL
}
