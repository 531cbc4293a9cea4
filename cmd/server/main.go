package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/api"
	"github.com/jcreedon/prop-insights/internal/api/middleware"
	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/providers"
	"github.com/jcreedon/prop-insights/internal/services"
	"github.com/jcreedon/prop-insights/internal/store"
	"github.com/jcreedon/prop-insights/pkg/config"
	"github.com/jcreedon/prop-insights/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	logger := logrus.StandardLogger()
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis; the service degrades without it rather than
	// refusing to start
	var redisClient *redis.Client
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient = redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Warnf("Redis unavailable, analytics caching disabled: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Stores
	propStore := store.NewPropStore(db)
	cacheStore := store.NewOddsCacheStore(db)

	// Vendor clients
	statsClient := providers.NewStatsAPIClient(
		cfg.StatsAPIBaseURL, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, cfg.VendorRateLimit, logger)
	oddsClient := providers.NewOddsAPIClient(
		cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, cfg.VendorRateLimit, logger)

	statFetchers := make(map[models.Sport]providers.StatFetcher)
	for _, raw := range cfg.SupportedSports {
		sport := models.Sport(raw)
		if !sport.Valid() {
			logrus.Warnf("Ignoring unsupported sport %q", raw)
			continue
		}
		statFetchers[sport] = statsClient
	}

	// Services
	cacheService := services.NewCacheService(redisClient)
	recorder := services.NewRecorderService(propStore, logger)
	resolver := services.NewResolverService(propStore, statsClient, statFetchers, cacheService, logger)
	analytics := services.NewAnalyticsService(propStore, cacheService, cfg, logger)
	oddsCache := services.NewPropOddsCacheService(cacheStore, oddsClient, cfg, logger)

	// Background jobs
	if cfg.EnableBackgroundJobs {
		scheduler := services.NewSweepScheduler(resolver, oddsCache, cfg, logger)
		if err := scheduler.Start(); err != nil {
			logrus.Fatalf("Failed to start sweep scheduler: %v", err)
		}
		defer scheduler.Stop()
	} else {
		logrus.Info("Background jobs disabled")
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	apiGroup := router.Group("/api")
	api.SetupRoutes(apiGroup, api.Deps{
		DB:        db,
		Cache:     cacheService,
		PropStore: propStore,
		Recorder:  recorder,
		Resolver:  resolver,
		Analytics: analytics,
		OddsCache: oddsCache,
		Config:    cfg,
		Logger:    logger,
	})

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
