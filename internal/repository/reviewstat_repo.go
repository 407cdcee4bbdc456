package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"linecue-backend/internal/models"
)

type ReviewStatRepo struct {
	pool *pgxpool.Pool
}

func NewReviewStatRepo(pool *pgxpool.Pool) *ReviewStatRepo {
	return &ReviewStatRepo{pool: pool}
}

// GetByCueCard returns pgx.ErrNoRows when the cue was never reviewed.
func (r *ReviewStatRepo) GetByCueCard(ctx context.Context, cueCardID uuid.UUID) (*models.ReviewStat, error) {
	s := &models.ReviewStat{}
	query := `SELECT cue_card_id, last_score, streak, last_reviewed_at
		FROM review_stats WHERE cue_card_id = $1`

	err := r.pool.QueryRow(ctx, query, cueCardID).Scan(
		&s.CueCardID, &s.LastScore, &s.Streak, &s.LastReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert replaces the cue's stat wholesale; there is at most one row per cue.
func (r *ReviewStatRepo) Upsert(ctx context.Context, stat *models.ReviewStat) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_stats (cue_card_id, last_score, streak, last_reviewed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cue_card_id) DO UPDATE
		SET last_score = EXCLUDED.last_score,
		    streak = EXCLUDED.streak,
		    last_reviewed_at = EXCLUDED.last_reviewed_at
	`, stat.CueCardID, stat.LastScore, stat.Streak, stat.LastReviewedAt)
	return err
}

func (r *ReviewStatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ReviewStat, error) {
	query := `SELECT s.cue_card_id, s.last_score, s.streak, s.last_reviewed_at
		FROM review_stats s
		JOIN cue_cards c ON c.id = s.cue_card_id
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.ReviewStat, 0)
	for rows.Next() {
		s := models.ReviewStat{}
		if err := rows.Scan(&s.CueCardID, &s.LastScore, &s.Streak, &s.LastReviewedAt); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
