package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/services"
	"github.com/jcreedon/prop-insights/pkg/utils"
)

type CacheHandler struct {
	oddsCache *services.PropOddsCacheService
	logger    *logrus.Logger
}

func NewCacheHandler(oddsCache *services.PropOddsCacheService, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		oddsCache: oddsCache,
		logger:    logger,
	}
}

func parseSport(c *gin.Context) (models.Sport, bool) {
	sport := models.Sport(c.Param("sport"))
	if !sport.Valid() {
		utils.SendValidationError(c, "Invalid sport", "Sport must be one of: mlb, nfl, nhl")
		return "", false
	}
	return sport, true
}

// GetCachedProps returns today's fresh cached prop odds for a sport.
// An empty result with has_fresh_cache=false tells the client to
// request a refresh rather than signalling an error.
// GET /api/props/cache/:sport
func (h *CacheHandler) GetCachedProps(c *gin.Context) {
	sport, ok := parseSport(c)
	if !ok {
		return
	}

	result, err := h.oddsCache.Get(c.Request.Context(), sport)
	if err != nil {
		utils.SendInternalError(c, "Failed to read prop odds cache")
		return
	}

	utils.SendSuccess(c, result)
}

// RefreshCache pulls the vendor odds board and replaces the cached
// snapshot for the sport
// POST /api/props/cache/refresh/:sport
func (h *CacheHandler) RefreshCache(c *gin.Context) {
	sport, ok := parseSport(c)
	if !ok {
		return
	}

	count, err := h.oddsCache.Refresh(c.Request.Context(), sport)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"sport": sport,
			"error": err.Error(),
		}).Error("Prop odds refresh failed")
		utils.SendError(c, 502, utils.NewAppError(utils.ErrCodeCollaborator, "Vendor odds fetch failed"))
		return
	}

	utils.SendSuccess(c, gin.H{"sport": sport, "cached": count})
}

// GetCacheStats reports cache freshness counts
// GET /api/props/cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats, err := h.oddsCache.Stats(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to compute cache stats")
		return
	}

	utils.SendSuccess(c, stats)
}

// SweepCache flips expired entries stale and purges entries past the
// retention window
// POST /api/props/cache/sweep
func (h *CacheHandler) SweepCache(c *gin.Context) {
	marked, err := h.oddsCache.MarkStale(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to mark stale entries")
		return
	}

	purged, err := h.oddsCache.Purge(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to purge old entries")
		return
	}

	utils.SendSuccess(c, gin.H{"marked_stale": marked, "purged": purged})
}
