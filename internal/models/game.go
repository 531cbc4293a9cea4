package models

import (
	"strings"
	"time"
)

// Game is the lookup shape returned by schedule vendors. It is not
// persisted by this service; finality judgments are made from it.
type Game struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Sport      Sport     `json:"sport"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	Status     string    `json:"status"`
	Date       time.Time `json:"date"`
}

// finalStatuses is the closed set of vendor status strings that mean a
// game is over. Vendors are inconsistent about which one they use.
var finalStatuses = map[string]bool{
	"final":     true,
	"completed": true,
	"f":         true,
	"closed":    true,
}

// IsFinal reports whether the game can be settled. The explicit status
// set is checked first; a game whose date is more than one calendar day
// in the past is treated as final even if its status never transitioned.
func (g *Game) IsFinal(now time.Time) bool {
	if finalStatuses[strings.ToLower(strings.TrimSpace(g.Status))] {
		return true
	}
	return now.Sub(g.Date) > 24*time.Hour
}
