package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linecue-backend/internal/models"
)

type reviewStatStore interface {
	GetByCueCard(ctx context.Context, cueCardID uuid.UUID) (*models.ReviewStat, error)
	Upsert(ctx context.Context, stat *models.ReviewStat) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ReviewStat, error)
}

type cueCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// ProgressService updates per-cue review stats and derives aggregate
// rehearsal statistics. Aggregates are recomputed on every read.
type ProgressService struct {
	stats    reviewStatStore
	cues     cueCounter
	location *time.Location
}

func NewProgressService(stats reviewStatStore, cues cueCounter, location *time.Location) *ProgressService {
	return &ProgressService{stats: stats, cues: cues, location: location}
}

// RecordResult applies one evaluation outcome to the cue's review stat.
// The stat is replaced wholesale, never appended.
func (s *ProgressService) RecordResult(ctx context.Context, cueCardID uuid.UUID, score float64, now time.Time) (models.ReviewStat, error) {
	prev, err := s.stats.GetByCueCard(ctx, cueCardID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return models.ReviewStat{}, err
	}

	stat := NextReviewStat(prev, cueCardID, score, now)
	if err := s.stats.Upsert(ctx, &stat); err != nil {
		return models.ReviewStat{}, err
	}
	return stat, nil
}

func (s *ProgressService) GlobalStats(ctx context.Context, userID uuid.UUID, now time.Time) (models.GlobalStats, error) {
	totalCues, err := s.cues.CountByUser(ctx, userID)
	if err != nil {
		return models.GlobalStats{}, err
	}

	stats, err := s.stats.ListByUser(ctx, userID)
	if err != nil {
		return models.GlobalStats{}, err
	}

	return ComputeGlobalStats(totalCues, stats, now, s.location), nil
}

// NextReviewStat is the streak law: a correct answer (score >= 0.8) extends
// the streak, or starts it at 1 when the cue was never reviewed; any
// incorrect answer resets the streak to 0.
func NextReviewStat(prev *models.ReviewStat, cueCardID uuid.UUID, score float64, now time.Time) models.ReviewStat {
	streak := 0
	if score >= models.CorrectThreshold {
		streak = 1
		if prev != nil {
			streak = prev.Streak + 1
		}
	}

	return models.ReviewStat{
		CueCardID:      cueCardID,
		LastScore:      score,
		Streak:         streak,
		LastReviewedAt: now,
	}
}

// ComputeGlobalStats derives the dashboard aggregates from a snapshot of
// all cue cards and review stats.
func ComputeGlobalStats(totalCues int, stats []models.ReviewStat, now time.Time, loc *time.Location) models.GlobalStats {
	out := models.GlobalStats{TotalCues: totalCues}

	reviewDays := make(map[int]bool, len(stats))
	today := dayNumber(now, loc)

	var scoreSum float64
	for _, stat := range stats {
		if stat.Mastered() {
			out.MasteredCues++
		}
		scoreSum += stat.LastScore

		day := dayNumber(stat.LastReviewedAt, loc)
		reviewDays[day] = true
		if day == today {
			out.ReviewedToday++
		}
	}

	if len(stats) > 0 {
		out.AverageScore = scoreSum / float64(len(stats))
	}

	// Walk backward one calendar day at a time. A day with no reviews ends
	// the streak, except that an empty "today" is skipped on the very first
	// step: reviewing yesterday but not yet today keeps the streak intact.
	check := today
	for {
		if reviewDays[check] {
			out.CurrentStreak++
			check--
			continue
		}
		if out.CurrentStreak == 0 && check == today {
			check--
			continue
		}
		break
	}

	return out
}

// ComputeDocumentProgress derives per-document preparation and mastery
// shares; both are 0 when their denominator is 0.
func ComputeDocumentProgress(documentID uuid.UUID, totalBlocks, cueCount, masteredCues int) models.DocumentProgress {
	p := models.DocumentProgress{
		DocumentID:   documentID,
		TotalBlocks:  totalBlocks,
		CueCount:     cueCount,
		MasteredCues: masteredCues,
	}
	if totalBlocks > 0 {
		p.PrepPercent = float64(cueCount) / float64(totalBlocks)
	}
	if cueCount > 0 {
		p.MasteryPercent = float64(masteredCues) / float64(cueCount)
	}
	return p
}

// dayNumber maps a timestamp to an integer day count in the given zone.
// Anchoring at noon UTC of the local calendar date keeps consecutive days
// exactly one apart across DST transitions.
func dayNumber(t time.Time, loc *time.Location) int {
	d := t.In(loc)
	return int(time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC).Unix() / 86400)
}
