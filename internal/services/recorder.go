package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jcreedon/prop-insights/internal/models"
	"github.com/jcreedon/prop-insights/internal/scoring"
	"github.com/jcreedon/prop-insights/internal/store"
)

// PropCandidate is the strict input shape for a freshly generated prop.
// Optional numeric inputs are pointers so "absent" and "zero" stay
// distinguishable; defaults are applied once at this boundary.
type PropCandidate struct {
	PropID         string
	GameID         string
	PlayerID       string
	PlayerName     string
	PropType       string
	Sport          models.Sport
	Prediction     models.Prediction
	Threshold      float64
	ProjectedValue float64
	Odds           float64
	Probability    *float64
	Edge           *float64
	Confidence     models.Confidence
}

const (
	defaultProbability = 0.5
	defaultEdge        = 0.0
)

// RecorderService commits prop candidates to the record store in a
// pending state, computing identity and quality score as it does so.
type RecorderService struct {
	store  *store.PropStore
	logger *logrus.Logger
}

func NewRecorderService(propStore *store.PropStore, logger *logrus.Logger) *RecorderService {
	return &RecorderService{
		store:  propStore,
		logger: logger,
	}
}

// Record validates and persists one candidate. A candidate missing its
// identity fields is skipped with a nil record and nil error so batch
// callers keep going; only storage failures surface as errors.
func (r *RecorderService) Record(ctx context.Context, candidate PropCandidate, source models.Source, parlayID *string) (*models.PropPrediction, error) {
	if candidate.PlayerName == "" || candidate.GameID == "" {
		r.logger.WithFields(logrus.Fields{
			"player_name": candidate.PlayerName,
			"game_id":     candidate.GameID,
			"source":      source,
		}).Warn("Skipping prop candidate with missing identity fields")
		return nil, nil
	}

	record := buildRecord(candidate, source, parlayID)
	if err := r.store.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("record prop %s: %w", record.PropID, err)
	}

	r.logger.WithFields(logrus.Fields{
		"prop_id":       record.PropID,
		"source":        source,
		"quality_score": record.QualityScore,
	}).Debug("Recorded prop prediction")

	return record, nil
}

// BatchSummary reports partial progress over a candidate batch.
type BatchSummary struct {
	Recorded int      `json:"recorded"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// RecordBatch records every candidate it can; individual failures never
// abort the batch.
func (r *RecorderService) RecordBatch(ctx context.Context, candidates []PropCandidate, source models.Source, parlayID *string) BatchSummary {
	var summary BatchSummary
	for _, candidate := range candidates {
		record, err := r.Record(ctx, candidate, source, parlayID)
		switch {
		case err != nil:
			summary.Errors = append(summary.Errors, err.Error())
		case record == nil:
			summary.Skipped++
		default:
			summary.Recorded++
		}
	}
	return summary
}

func buildRecord(candidate PropCandidate, source models.Source, parlayID *string) *models.PropPrediction {
	probability := defaultProbability
	if candidate.Probability != nil {
		probability = *candidate.Probability
	}

	edge := defaultEdge
	if candidate.Edge != nil && *candidate.Edge > 0 {
		edge = *candidate.Edge
	}

	confidence := candidate.Confidence
	if !confidence.Valid() {
		confidence = models.ConfidenceMedium
	}

	prediction := candidate.Prediction
	if !prediction.Valid() {
		prediction = models.PredictionOver
	}

	record := &models.PropPrediction{
		PropID:         candidate.PropID,
		GameID:         candidate.GameID,
		ParlayID:       parlayID,
		PlayerName:     candidate.PlayerName,
		PropType:       candidate.PropType,
		Sport:          candidate.Sport,
		Source:         source,
		Prediction:     prediction,
		Threshold:      candidate.Threshold,
		ProjectedValue: candidate.ProjectedValue,
		Odds:           candidate.Odds,
		Probability:    probability,
		Edge:           edge,
		Confidence:     confidence,
		QualityScore:   scoring.Score(probability, edge, confidence),
		Status:         models.StatusPending,
		Timestamp:      time.Now().UTC(),
	}
	if candidate.PlayerID != "" {
		record.PlayerID = &candidate.PlayerID
	}
	if record.PropID == "" {
		record.PropID = DerivePropID(candidate.PlayerName, candidate.PropType, candidate.GameID)
	}
	return record
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// DerivePropID builds the deterministic natural key for a prediction so
// repeated generation runs upsert onto the same row. Falls back to a
// random id when the stat type is unknown.
func DerivePropID(playerName, propType, gameID string) string {
	if propType == "" {
		return uuid.NewString()
	}
	player := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(playerName), "-"), "-")
	return fmt.Sprintf("%s_%s_%s", player, propType, gameID)
}
