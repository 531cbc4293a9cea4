package models

import (
	"time"
)

// Sport identifies the league a prop belongs to
type Sport string

const (
	SportMLB Sport = "mlb"
	SportNFL Sport = "nfl"
	SportNHL Sport = "nhl"
)

func (s Sport) Valid() bool {
	switch s {
	case SportMLB, SportNFL, SportNHL:
		return true
	}
	return false
}

// Prediction is the side of the line the prop takes
type Prediction string

const (
	PredictionOver  Prediction = "over"
	PredictionUnder Prediction = "under"
)

func (p Prediction) Valid() bool {
	return p == PredictionOver || p == PredictionUnder
}

// Confidence is the ordinal confidence level attached to a prediction
type Confidence string

const (
	ConfidenceVeryLow  Confidence = "very_low"
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceVeryLow, ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return true
	}
	return false
}

// Source records where a prediction came from
type Source string

const (
	SourceUserSaved       Source = "user_saved"
	SourceParlayLeg       Source = "parlay_leg"
	SourceSystemGenerated Source = "system_generated"
	SourceAPIGenerated    Source = "api_generated"
)

// Status is the lifecycle state of a prediction record
type Status string

const (
	StatusPending     Status = "pending"
	StatusNeedsReview Status = "needs_review"
	StatusCompleted   Status = "completed"
)

// IsFinal reports whether the record has left the pending state
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusNeedsReview
}

// Result is the graded outcome of a completed prediction
type Result string

const (
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
	ResultPush      Result = "push"
)

// PropPrediction is the validation record for a single prop prediction.
// Records are created pending, resolved exactly once, and never deleted.
type PropPrediction struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PropID   string `gorm:"uniqueIndex;not null" json:"prop_id"`
	GameID   string `gorm:"index;not null" json:"game_id"`
	ParlayID *string `gorm:"index" json:"parlay_id,omitempty"`
	PlayerID *string `json:"player_id,omitempty"`

	PlayerName string `gorm:"not null" json:"player_name"`
	PropType   string `gorm:"index;not null" json:"prop_type"`
	Sport      Sport  `gorm:"index;not null" json:"sport"`
	Source     Source `gorm:"index;not null" json:"source"`

	Prediction     Prediction `gorm:"not null" json:"prediction"`
	Threshold      float64    `gorm:"not null" json:"threshold"`
	ProjectedValue float64    `json:"projected_value"`
	Odds           float64    `json:"odds"`
	Probability    float64    `json:"probability"`
	Edge           float64    `json:"edge"`
	Confidence     Confidence `gorm:"default:'medium'" json:"confidence"`
	QualityScore   float64    `json:"quality_score"`

	Status      Status     `gorm:"index;default:'pending'" json:"status"`
	Result      *Result    `json:"result,omitempty"`
	ActualValue *float64   `json:"actual_value,omitempty"`
	Note        string     `json:"note,omitempty"`
	Timestamp   time.Time  `gorm:"index" json:"timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (PropPrediction) TableName() string {
	return "prop_predictions"
}

// GradeOutcome maps an observed stat to a result for this record's pick.
// Exact equality with the threshold is a push regardless of side.
func GradeOutcome(prediction Prediction, threshold, actual float64) Result {
	if actual == threshold {
		return ResultPush
	}
	if prediction == PredictionOver {
		if actual > threshold {
			return ResultCorrect
		}
		return ResultIncorrect
	}
	if actual < threshold {
		return ResultCorrect
	}
	return ResultIncorrect
}
