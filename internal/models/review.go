package models

import (
	"time"

	"github.com/google/uuid"
)

// CorrectThreshold is the universal score cutoff for a correct recall.
const CorrectThreshold = 0.8

// MasteryStreak is the streak at which a cue counts as mastered.
const MasteryStreak = 3

// ReviewStat is the learning-progress record for one cue card. It is
// replaced wholesale on every evaluation, never appended.
type ReviewStat struct {
	CueCardID      uuid.UUID `json:"cue_card_id"`
	LastScore      float64   `json:"last_score"`
	Streak         int       `json:"streak"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
}

func (s ReviewStat) Mastered() bool {
	return s.Streak >= MasteryStreak
}

type EvaluationResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

type GlobalStats struct {
	TotalCues     int     `json:"total_cues"`
	MasteredCues  int     `json:"mastered_cues"`
	AverageScore  float64 `json:"average_score"`
	CurrentStreak int     `json:"current_streak_days"`
	ReviewedToday int     `json:"reviewed_today"`
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}
