// Package providers holds the vendor collaborator contracts the
// prediction lifecycle depends on, plus thin HTTP clients for them.
// Collaborator calls are idempotent reads; resilience (circuit breaker,
// rate limit) lives here so callers stay per-record and fire-and-check.
package providers

import (
	"context"
	"time"

	"github.com/jcreedon/prop-insights/internal/models"
)

// StatFetcher returns the observed statistic for a player in a completed
// game, or nil when the vendor has no value for it.
type StatFetcher interface {
	FetchActualStat(ctx context.Context, sport models.Sport, gameExternalID, playerName, propType string) (*float64, error)
}

// GameLookup resolves a game id to its schedule entry, or nil when the
// game cannot be located.
type GameLookup interface {
	LookupGame(ctx context.Context, gameID string) (*models.Game, error)
}

// VendorPropOdds is one bookmaker's quote for one prop selection as it
// arrives from the odds feed.
type VendorPropOdds struct {
	GameID     string    `json:"game_id"`
	GameTime   time.Time `json:"game_time"`
	PlayerName string    `json:"player_name"`
	Market     string    `json:"market"`
	Selection  string    `json:"selection"`
	Threshold  float64   `json:"threshold"`
	Odds       float64   `json:"odds"`
	Bookmaker  string    `json:"bookmaker"`
	LastUpdate time.Time `json:"last_update"`
}

// PropOddsFetcher pulls the current prop odds board for a sport,
// potentially multiple bookmakers per player/market.
type PropOddsFetcher interface {
	FetchPropOdds(ctx context.Context, sport models.Sport) ([]VendorPropOdds, error)
}
