package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/api/handlers"
	"github.com/jcreedon/prop-insights/internal/services"
	"github.com/jcreedon/prop-insights/internal/store"
	"github.com/jcreedon/prop-insights/pkg/config"
	"github.com/jcreedon/prop-insights/pkg/database"
)

// Deps carries the constructed services the routes are built on.
type Deps struct {
	DB        *database.DB
	Cache     *services.CacheService
	PropStore *store.PropStore
	Recorder  *services.RecorderService
	Resolver  *services.ResolverService
	Analytics *services.AnalyticsService
	OddsCache *services.PropOddsCacheService
	Config    *config.Config
	Logger    *logrus.Logger
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, deps Deps) {
	validationHandler := handlers.NewValidationHandler(
		deps.Recorder, deps.Resolver, deps.Analytics, deps.PropStore, deps.Config, deps.Logger)
	cacheHandler := handlers.NewCacheHandler(deps.OddsCache, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Cache)

	group.GET("/health", healthHandler.GetHealth)

	// Prediction lifecycle endpoints
	validation := group.Group("/validation")
	{
		validation.POST("/record", validationHandler.RecordProp)
		validation.POST("/record/batch", validationHandler.RecordBatch)
		validation.POST("/resolve", validationHandler.ResolveProp)
		validation.POST("/sweep", validationHandler.TriggerSweep)
		validation.GET("/stats", validationHandler.GetStats)
		validation.GET("/records", validationHandler.GetRecords)
		validation.GET("/insights", validationHandler.GetInsights)
	}

	// Prop odds cache endpoints
	propsCache := group.Group("/props/cache")
	{
		propsCache.GET("/stats", cacheHandler.GetCacheStats)
		propsCache.GET("/:sport", cacheHandler.GetCachedProps)
		propsCache.POST("/refresh/:sport", cacheHandler.RefreshCache)
		propsCache.POST("/sweep", cacheHandler.SweepCache)
	}
}
