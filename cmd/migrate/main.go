package main

import (
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/pkg/config"
	"github.com/jcreedon/prop-insights/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	return db.AutoMigrate(
		&models.PropPrediction{},
		&models.PropOddsCacheEntry{},
	)
}

func dropTables(db *database.DB) error {
	return db.Migrator().DropTable(
		&models.PropPrediction{},
		&models.PropOddsCacheEntry{},
	)
}

// seedData loads a handful of pending records for local development.
func seedData(db *database.DB) error {
	now := time.Now().UTC()

	records := []models.PropPrediction{
		{
			PropID:      "juan-soto_hits_mlb_401234",
			GameID:      "mlb_401234",
			PlayerName:  "Juan Soto",
			PropType:    "hits",
			Sport:       models.SportMLB,
			Source:      models.SourceSystemGenerated,
			Prediction:  models.PredictionOver,
			Threshold:   1.5,
			Odds:        -115,
			Probability: 0.58,
			Confidence:  models.ConfidenceHigh,
			Status:      models.StatusPending,
			Timestamp:   now,
		},
		{
			PropID:      "josh-allen_passing_yards_nfl_401547",
			GameID:      "nfl_401547",
			PlayerName:  "Josh Allen",
			PropType:    "passing_yards",
			Sport:       models.SportNFL,
			Source:      models.SourceUserSaved,
			Prediction:  models.PredictionUnder,
			Threshold:   249.5,
			Odds:        -110,
			Probability: 0.52,
			Confidence:  models.ConfidenceMedium,
			Status:      models.StatusPending,
			Timestamp:   now,
		},
	}

	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
