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

// OddsAPIClient pulls player prop odds boards from a the-odds-api-style
// feed. Implements PropOddsFetcher.
type OddsAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func NewOddsAPIClient(baseURL, apiKey string, timeout time.Duration, breakerThreshold, rateLimit int, logger *logrus.Logger) *OddsAPIClient {
	return &OddsAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: newVendorBreaker("odds-api", breakerThreshold, timeout, logger),
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		logger:  logger,
	}
}

var sportKeys = map[models.Sport]string{
	models.SportMLB: "baseball_mlb",
	models.SportNFL: "americanfootball_nfl",
	models.SportNHL: "icehockey_nhl",
}

var propMarkets = map[models.Sport]string{
	models.SportMLB: "batter_hits,batter_home_runs,batter_rbis,pitcher_strikeouts",
	models.SportNFL: "player_pass_yds,player_rush_yds,player_reception_yds,player_receptions",
	models.SportNHL: "player_goals,player_assists,player_shots_on_goal,player_points",
}

type oddsEvent struct {
	ID           string    `json:"id"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Bookmakers   []struct {
		Key     string `json:"key"`
		Markets []struct {
			Key        string    `json:"key"`
			LastUpdate time.Time `json:"last_update"`
			Outcomes   []struct {
				Name        string  `json:"name"`
				Description string  `json:"description"`
				Price       float64 `json:"price"`
				Point       float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// FetchPropOdds returns every bookmaker quote for the sport's current
// prop markets, flattened one quote per row.
func (c *OddsAPIClient) FetchPropOdds(ctx context.Context, sport models.Sport) ([]VendorPropOdds, error) {
	sportKey, ok := sportKeys[sport]
	if !ok {
		return nil, fmt.Errorf("unsupported sport %q", sport)
	}

	url := fmt.Sprintf("%s/sports/%s/odds?apiKey=%s&regions=us&markets=%s&oddsFormat=american",
		c.baseURL, sportKey, c.apiKey, propMarkets[sport])

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
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
			return nil, fmt.Errorf("odds vendor returned %d", resp.StatusCode)
		}

		var events []oddsEvent
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			return nil, err
		}
		return events, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch prop odds for %s: %w", sport, err)
	}

	events := result.([]oddsEvent)
	var quotes []VendorPropOdds
	for _, event := range events {
		gameID := fmt.Sprintf("%s_%s", sport, event.ID)
		for _, book := range event.Bookmakers {
			for _, market := range book.Markets {
				for _, outcome := range market.Outcomes {
					quotes = append(quotes, VendorPropOdds{
						GameID:     gameID,
						GameTime:   event.CommenceTime,
						PlayerName: outcome.Description,
						Market:     market.Key,
						Selection:  strings.ToLower(outcome.Name),
						Threshold:  outcome.Point,
						Odds:       outcome.Price,
						Bookmaker:  book.Key,
						LastUpdate: market.LastUpdate,
					})
				}
			}
		}
	}

	c.logger.WithFields(logrus.Fields{
		"sport":  sport,
		"quotes": len(quotes),
	}).Debug("Fetched prop odds board")

	return quotes, nil
}
