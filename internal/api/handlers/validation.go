package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/services"
	"github.com/jcreedon/prop-insights/internal/store"
	"github.com/jcreedon/prop-insights/pkg/config"
	"github.com/jcreedon/prop-insights/pkg/utils"
)

type ValidationHandler struct {
	recorder  *services.RecorderService
	resolver  *services.ResolverService
	analytics *services.AnalyticsService
	store     *store.PropStore
	cfg       *config.Config
	logger    *logrus.Logger
}

func NewValidationHandler(
	recorder *services.RecorderService,
	resolver *services.ResolverService,
	analytics *services.AnalyticsService,
	propStore *store.PropStore,
	cfg *config.Config,
	logger *logrus.Logger,
) *ValidationHandler {
	return &ValidationHandler{
		recorder:  recorder,
		resolver:  resolver,
		analytics: analytics,
		store:     propStore,
		cfg:       cfg,
		logger:    logger,
	}
}

// propCandidateRequest is the wire shape for a single prop candidate.
type propCandidateRequest struct {
	PropID         string   `json:"prop_id"`
	GameID         string   `json:"game_id"`
	PlayerID       string   `json:"player_id"`
	PlayerName     string   `json:"player_name"`
	PropType       string   `json:"prop_type"`
	Sport          string   `json:"sport"`
	Prediction     string   `json:"prediction"`
	Threshold      float64  `json:"threshold"`
	ProjectedValue float64  `json:"projected_value"`
	Odds           float64  `json:"odds"`
	Probability    *float64 `json:"probability"`
	Edge           *float64 `json:"edge"`
	Confidence     string   `json:"confidence"`
}

func (r propCandidateRequest) toCandidate() services.PropCandidate {
	return services.PropCandidate{
		PropID:         r.PropID,
		GameID:         r.GameID,
		PlayerID:       r.PlayerID,
		PlayerName:     r.PlayerName,
		PropType:       r.PropType,
		Sport:          models.Sport(r.Sport),
		Prediction:     models.Prediction(r.Prediction),
		Threshold:      r.Threshold,
		ProjectedValue: r.ProjectedValue,
		Odds:           r.Odds,
		Probability:    r.Probability,
		Edge:           r.Edge,
		Confidence:     models.Confidence(r.Confidence),
	}
}

type recordRequest struct {
	propCandidateRequest
	Source   string  `json:"source"`
	ParlayID *string `json:"parlay_id"`
}

// RecordProp persists one prop candidate as a pending validation record
// POST /api/validation/record
func (h *ValidationHandler) RecordProp(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	source := models.Source(req.Source)
	if source == "" {
		source = models.SourceAPIGenerated
	}

	record, err := h.recorder.Record(c.Request.Context(), req.toCandidate(), source, req.ParlayID)
	if err != nil {
		utils.SendInternalError(c, "Failed to record prediction")
		return
	}
	if record == nil {
		// Missing identity fields; skipped, not an error
		utils.SendSuccess(c, gin.H{"recorded": false})
		return
	}

	utils.SendSuccess(c, gin.H{"recorded": true, "record": record})
}

type recordBatchRequest struct {
	Props    []propCandidateRequest `json:"props"`
	Source   string                 `json:"source"`
	ParlayID *string                `json:"parlay_id"`
}

// RecordBatch persists a set of prop candidates, skipping invalid ones
// POST /api/validation/record/batch
func (h *ValidationHandler) RecordBatch(c *gin.Context) {
	var req recordBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if len(req.Props) == 0 {
		utils.SendValidationError(c, "No props provided", "The 'props' array must not be empty")
		return
	}

	source := models.Source(req.Source)
	if source == "" {
		source = models.SourceAPIGenerated
	}

	candidates := make([]services.PropCandidate, 0, len(req.Props))
	for _, p := range req.Props {
		candidates = append(candidates, p.toCandidate())
	}

	summary := h.recorder.RecordBatch(c.Request.Context(), candidates, source, req.ParlayID)
	utils.SendSuccess(c, summary)
}

type resolveRequest struct {
	PropID      string   `json:"prop_id" binding:"required"`
	ActualValue *float64 `json:"actual_value" binding:"required"`
}

// ResolveProp grades one record against a supplied actual stat
// POST /api/validation/resolve
func (h *ValidationHandler) ResolveProp(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", "prop_id and actual_value are required")
		return
	}

	record, err := h.resolver.Resolve(c.Request.Context(), req.PropID, *req.ActualValue)
	if err != nil {
		utils.SendInternalError(c, "Failed to resolve prediction")
		return
	}
	if record == nil {
		utils.SendNotFound(c, "No prediction record for that prop id")
		return
	}

	utils.SendSuccess(c, record)
}

// TriggerSweep runs one batch of the reconciliation sweep. The response
// carries next_offset; callers resume there to page through the backlog.
// POST /api/validation/sweep?offset=0
func (h *ValidationHandler) TriggerSweep(c *gin.Context) {
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.SendValidationError(c, "Invalid offset", "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	summary, err := h.resolver.Sweep(c.Request.Context(), offset, h.cfg.SweepBatchSize)
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			utils.SendConflict(c, err.Error())
			return
		}
		utils.SendInternalError(c, "Sweep failed")
		return
	}

	utils.SendSuccess(c, summary)
}

// GetStats returns the validation accuracy rollup
// GET /api/validation/stats?sport=mlb&prop_type=hits&player=&from=&to=
func (h *ValidationHandler) GetStats(c *gin.Context) {
	filter := store.CompletedFilter{
		PropType: c.Query("prop_type"),
		Player:   c.Query("player"),
	}

	if sport := c.Query("sport"); sport != "" {
		s := models.Sport(sport)
		if !s.Valid() {
			utils.SendValidationError(c, "Invalid sport", "Sport must be one of: mlb, nfl, nhl")
			return
		}
		filter.Sport = s
	}

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.SendValidationError(c, "Invalid date", "from must be formatted YYYY-MM-DD")
			return
		}
		filter.From = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.SendValidationError(c, "Invalid date", "to must be formatted YYYY-MM-DD")
			return
		}
		filter.To = &parsed
	}

	stats, err := h.analytics.Stats(c.Request.Context(), filter)
	if err != nil {
		utils.SendInternalError(c, "Failed to compute validation stats")
		return
	}

	utils.SendSuccess(c, stats)
}

// GetRecords returns the most recent validation records
// GET /api/validation/records?limit=50
func (h *ValidationHandler) GetRecords(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			utils.SendValidationError(c, "Invalid limit", "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	records, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch records")
		return
	}

	utils.SendSuccess(c, records)
}

// GetInsights returns prop types the system is beating or losing to
// GET /api/validation/insights
func (h *ValidationHandler) GetInsights(c *gin.Context) {
	insights, err := h.analytics.Insights(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to compute insights")
		return
	}

	utils.SendSuccess(c, insights)
}
