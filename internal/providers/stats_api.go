package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jcreedon/prop-insights/internal/models"
)

// StatsAPIClient reads completed-game box scores and schedule entries
// from an ESPN-style site API. Implements StatFetcher and GameLookup.
type StatsAPIClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewStatsAPIClient(baseURL string, timeout time.Duration, breakerThreshold, rateLimit int, logger *logrus.Logger) *StatsAPIClient {
	return &StatsAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: newVendorBreaker("stats-api", breakerThreshold, timeout, logger),
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		logger:  logger,
	}
}

var leaguePaths = map[models.Sport]string{
	models.SportMLB: "baseball/mlb",
	models.SportNFL: "football/nfl",
	models.SportNHL: "hockey/nhl",
}

// statKeys maps our prop type names onto the vendor's stat labels.
var statKeys = map[models.Sport]map[string]string{
	models.SportMLB: {
		"hits":        "hits",
		"runs":        "runs",
		"rbis":        "RBIs",
		"home_runs":   "homeRuns",
		"strikeouts":  "strikeouts",
		"total_bases": "totalBases",
	},
	models.SportNFL: {
		"passing_yards":   "passingYards",
		"rushing_yards":   "rushingYards",
		"receiving_yards": "receivingYards",
		"receptions":      "receptions",
		"passing_tds":     "passingTouchdowns",
	},
	models.SportNHL: {
		"goals":         "goals",
		"assists":       "assists",
		"shots_on_goal": "shotsTotal",
		"points":        "points",
	},
}

type summaryResponse struct {
	Boxscore struct {
		Players []struct {
			Statistics []struct {
				Athletes []struct {
					Athlete struct {
						DisplayName string `json:"displayName"`
					} `json:"athlete"`
					Stats []string `json:"stats"`
				} `json:"athletes"`
				Keys []string `json:"keys"`
			} `json:"statistics"`
		} `json:"players"`
	} `json:"boxscore"`
}

type eventResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Name   string `json:"name"`
	Status struct {
		Type struct {
			Name      string `json:"name"`
			State     string `json:"state"`
			Completed bool   `json:"completed"`
		} `json:"type"`
	} `json:"status"`
	Competitions []struct {
		Competitors []struct {
			HomeAway string `json:"homeAway"`
			Team     struct {
				DisplayName string `json:"displayName"`
			} `json:"team"`
		} `json:"competitors"`
	} `json:"competitions"`
}

// FetchActualStat returns the observed stat for a player in a finished
// game, or nil when the box score has no value for them.
func (c *StatsAPIClient) FetchActualStat(ctx context.Context, sport models.Sport, gameExternalID, playerName, propType string) (*float64, error) {
	leaguePath, ok := leaguePaths[sport]
	if !ok {
		return nil, fmt.Errorf("unsupported sport %q", sport)
	}

	statKey, ok := statKeys[sport][propType]
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"sport":     sport,
			"prop_type": propType,
		}).Warn("No vendor stat mapping for prop type")
		return nil, nil
	}

	url := fmt.Sprintf("%s/%s/summary?event=%s", c.baseURL, leaguePath, gameExternalID)

	var summary summaryResponse
	if err := c.getJSON(ctx, url, &summary); err != nil {
		return nil, fmt.Errorf("fetch box score for game %s: %w", gameExternalID, err)
	}

	target := normalizeName(playerName)
	for _, team := range summary.Boxscore.Players {
		for _, group := range team.Statistics {
			idx := indexOf(group.Keys, statKey)
			if idx < 0 {
				continue
			}
			for _, athlete := range group.Athletes {
				if normalizeName(athlete.Athlete.DisplayName) != target {
					continue
				}
				if idx >= len(athlete.Stats) {
					continue
				}
				var value float64
				if _, err := fmt.Sscanf(athlete.Stats[idx], "%f", &value); err != nil {
					continue
				}
				return &value, nil
			}
		}
	}

	return nil, nil
}

// LookupGame resolves a game's schedule entry for finality checks.
func (c *StatsAPIClient) LookupGame(ctx context.Context, gameID string) (*models.Game, error) {
	sport, externalID, err := SplitGameID(gameID)
	if err != nil {
		return nil, err
	}

	leaguePath, ok := leaguePaths[sport]
	if !ok {
		return nil, fmt.Errorf("unsupported sport %q", sport)
	}

	url := fmt.Sprintf("%s/%s/summary?event=%s", c.baseURL, leaguePath, externalID)

	var event struct {
		Header eventResponse `json:"header"`
	}
	if err := c.getJSON(ctx, url, &event); err != nil {
		return nil, fmt.Errorf("lookup game %s: %w", gameID, err)
	}
	if event.Header.ID == "" {
		return nil, nil
	}

	game := &models.Game{
		ID:         gameID,
		ExternalID: event.Header.ID,
		Sport:      sport,
		Status:     event.Header.Status.Type.Name,
	}
	if event.Header.Status.Type.Completed {
		game.Status = "final"
	}
	if date, err := time.Parse("2006-01-02T15:04Z", event.Header.Date); err == nil {
		game.Date = date
	}
	for _, comp := range event.Header.Competitions {
		for _, competitor := range comp.Competitors {
			if competitor.HomeAway == "home" {
				game.HomeTeam = competitor.Team.DisplayName
			} else {
				game.AwayTeam = competitor.Team.DisplayName
			}
		}
	}
	return game, nil
}

func (c *StatsAPIClient) getJSON(ctx context.Context, url string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("vendor returned %d", resp.StatusCode)
		}

		return nil, json.NewDecoder(resp.Body).Decode(dest)
	})
	return err
}

// SplitGameID separates the sport prefix from a game id of the form
// "<sport>_<vendor event id>".
func SplitGameID(gameID string) (models.Sport, string, error) {
	parts := strings.SplitN(gameID, "_", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed game id %q", gameID)
	}
	sport := models.Sport(parts[0])
	if !sport.Valid() {
		return "", "", fmt.Errorf("unknown sport in game id %q", gameID)
	}
	return sport, parts[1], nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if strings.EqualFold(k, key) {
			return i
		}
	}
	return -1
}
