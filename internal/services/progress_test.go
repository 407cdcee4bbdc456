package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"linecue-backend/internal/models"
)

func TestNextReviewStat_StreakLaw(t *testing.T) {
	cueID := uuid.New()
	now := time.Now()

	scores := []float64{0.9, 0.9, 0.4, 0.9}
	expectedStreaks := []int{1, 2, 0, 1}

	var prev *models.ReviewStat
	for i, score := range scores {
		stat := NextReviewStat(prev, cueID, score, now)
		if stat.Streak != expectedStreaks[i] {
			t.Errorf("after score %v: expected streak %d, got %d", score, expectedStreaks[i], stat.Streak)
		}
		if stat.LastScore != score {
			t.Errorf("expected last score %v, got %v", score, stat.LastScore)
		}
		prev = &stat
	}
}

func TestNextReviewStat_ThresholdBoundary(t *testing.T) {
	cueID := uuid.New()
	now := time.Now()

	if stat := NextReviewStat(nil, cueID, 0.8, now); stat.Streak != 1 {
		t.Errorf("score exactly 0.8 is correct, expected streak 1, got %d", stat.Streak)
	}
	if stat := NextReviewStat(nil, cueID, 0.79, now); stat.Streak != 0 {
		t.Errorf("score 0.79 is incorrect, expected streak 0, got %d", stat.Streak)
	}
}

func TestReviewStat_Mastered(t *testing.T) {
	if !(models.ReviewStat{Streak: 3}).Mastered() {
		t.Error("streak 3 must count as mastered")
	}
	if (models.ReviewStat{Streak: 2}).Mastered() {
		t.Error("streak 2 must not count as mastered")
	}
}

func TestComputeGlobalStats_Empty(t *testing.T) {
	stats := ComputeGlobalStats(0, nil, time.Now(), time.UTC)

	if stats.AverageScore != 0 {
		t.Errorf("expected average score 0 with no stats, got %v", stats.AverageScore)
	}
	if stats.CurrentStreak != 0 {
		t.Errorf("expected day streak 0 with no reviews, got %d", stats.CurrentStreak)
	}
}

func TestComputeGlobalStats_Aggregates(t *testing.T) {
	now := time.Now()
	stats := []models.ReviewStat{
		{CueCardID: uuid.New(), LastScore: 1.0, Streak: 4, LastReviewedAt: now},
		{CueCardID: uuid.New(), LastScore: 0.5, Streak: 0, LastReviewedAt: now},
	}

	got := ComputeGlobalStats(5, stats, now, time.UTC)

	if got.TotalCues != 5 {
		t.Errorf("expected 5 total cues, got %d", got.TotalCues)
	}
	if got.MasteredCues != 1 {
		t.Errorf("expected 1 mastered cue, got %d", got.MasteredCues)
	}
	if got.AverageScore != 0.75 {
		t.Errorf("expected average score 0.75, got %v", got.AverageScore)
	}
	if got.ReviewedToday != 2 {
		t.Errorf("expected 2 reviews today, got %d", got.ReviewedToday)
	}
}

func TestComputeGlobalStats_DayStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name     string
		reviews  []time.Time
		expected int
	}{
		{"today, yesterday, day before", []time.Time{now, now.Add(-day), now.Add(-2 * day)}, 3},
		{"yesterday and day before, none today", []time.Time{now.Add(-day), now.Add(-2 * day)}, 2},
		{"only today", []time.Time{now.Add(-2 * time.Hour)}, 1},
		{"gap breaks the walk", []time.Time{now, now.Add(-2 * day)}, 1},
		{"last review two days ago", []time.Time{now.Add(-2 * day)}, 0},
		{"no reviews", nil, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stats []models.ReviewStat
			for _, ts := range tc.reviews {
				stats = append(stats, models.ReviewStat{CueCardID: uuid.New(), LastScore: 0.9, Streak: 1, LastReviewedAt: ts})
			}

			got := ComputeGlobalStats(len(stats), stats, now, time.UTC)
			if got.CurrentStreak != tc.expected {
				t.Errorf("expected day streak %d, got %d", tc.expected, got.CurrentStreak)
			}
		})
	}
}

func TestComputeDocumentProgress(t *testing.T) {
	docID := uuid.New()

	p := ComputeDocumentProgress(docID, 10, 4, 2)
	if p.PrepPercent != 0.4 {
		t.Errorf("expected prep percent 0.4, got %v", p.PrepPercent)
	}
	if p.MasteryPercent != 0.5 {
		t.Errorf("expected mastery percent 0.5, got %v", p.MasteryPercent)
	}

	empty := ComputeDocumentProgress(docID, 0, 0, 0)
	if empty.PrepPercent != 0 || empty.MasteryPercent != 0 {
		t.Error("zero denominators must yield zero percentages")
	}
}

// In-memory stat store for exercising RecordResult end to end.
type memStatStore struct {
	stats map[uuid.UUID]models.ReviewStat
}

func newMemStatStore() *memStatStore {
	return &memStatStore{stats: make(map[uuid.UUID]models.ReviewStat)}
}

func (m *memStatStore) GetByCueCard(ctx context.Context, cueCardID uuid.UUID) (*models.ReviewStat, error) {
	stat, ok := m.stats[cueCardID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &stat, nil
}

func (m *memStatStore) Upsert(ctx context.Context, stat *models.ReviewStat) error {
	m.stats[stat.CueCardID] = *stat
	return nil
}

func (m *memStatStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ReviewStat, error) {
	var out []models.ReviewStat
	for _, s := range m.stats {
		out = append(out, s)
	}
	return out, nil
}

type fixedCueCounter int

func (c fixedCueCounter) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return int(c), nil
}

func TestRecordResult_ReplacesStat(t *testing.T) {
	store := newMemStatStore()
	svc := NewProgressService(store, fixedCueCounter(1), time.UTC)
	cueID := uuid.New()
	ctx := context.Background()

	for _, score := range []float64{0.9, 0.9} {
		if _, err := svc.RecordResult(ctx, cueID, score, time.Now()); err != nil {
			t.Fatalf("RecordResult failed: %v", err)
		}
	}

	if len(store.stats) != 1 {
		t.Fatalf("expected exactly one stat per cue, got %d", len(store.stats))
	}
	if store.stats[cueID].Streak != 2 {
		t.Errorf("expected streak 2 after two correct answers, got %d", store.stats[cueID].Streak)
	}
}
