package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"linecue-backend/internal/models"
)

type CueCardRepo struct {
	pool *pgxpool.Pool
}

func NewCueCardRepo(pool *pgxpool.Pool) *CueCardRepo {
	return &CueCardRepo{pool: pool}
}

// Upsert creates or replaces the cue card for the block. The UNIQUE
// constraint on text_block_id enforces one cue per block; on conflict the
// existing row keeps its id and created_at so review stats stay attached.
func (r *CueCardRepo) Upsert(ctx context.Context, c *models.CueCard) error {
	c.ID = uuid.New()
	if c.Keywords == nil {
		c.Keywords = []string{}
	}

	query := `INSERT INTO cue_cards (id, document_id, text_block_id, cue_word, expected_text, strictness, keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (text_block_id) DO UPDATE
		SET cue_word = EXCLUDED.cue_word,
		    expected_text = EXCLUDED.expected_text,
		    strictness = EXCLUDED.strictness,
		    keywords = EXCLUDED.keywords
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.DocumentID, c.TextBlockID, c.CueWord, c.ExpectedText, c.Strictness, c.Keywords,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *CueCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CueCard, error) {
	return r.scanOne(ctx, `SELECT id, document_id, text_block_id, cue_word, expected_text, strictness, keywords, created_at
		FROM cue_cards WHERE id = $1`, id)
}

func (r *CueCardRepo) GetByBlock(ctx context.Context, blockID uuid.UUID) (*models.CueCard, error) {
	return r.scanOne(ctx, `SELECT id, document_id, text_block_id, cue_word, expected_text, strictness, keywords, created_at
		FROM cue_cards WHERE text_block_id = $1`, blockID)
}

func (r *CueCardRepo) scanOne(ctx context.Context, query string, arg any) (*models.CueCard, error) {
	c := &models.CueCard{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.DocumentID, &c.TextBlockID, &c.CueWord, &c.ExpectedText, &c.Strictness, &c.Keywords, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByDocument returns the document's cue cards in script order.
func (r *CueCardRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.CueCard, error) {
	query := `SELECT c.id, c.document_id, c.text_block_id, c.cue_word, c.expected_text, c.strictness, c.keywords, c.created_at
		FROM cue_cards c
		JOIN text_blocks b ON b.id = c.text_block_id
		WHERE c.document_id = $1
		ORDER BY b.order_index ASC`

	rows, err := r.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cues := make([]models.CueCard, 0)
	for rows.Next() {
		c := models.CueCard{}
		err := rows.Scan(&c.ID, &c.DocumentID, &c.TextBlockID, &c.CueWord, &c.ExpectedText, &c.Strictness, &c.Keywords, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		cues = append(cues, c)
	}
	return cues, rows.Err()
}

// Delete removes a cue card; deleting an absent cue is a no-op. The review
// stat cascades.
func (r *CueCardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM cue_cards WHERE id = $1", id)
	return err
}

func (r *CueCardRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM cue_cards c
		JOIN documents d ON d.id = c.document_id
		WHERE d.user_id = $1
	`, userID).Scan(&count)
	return count, err
}

func (r *CueCardRepo) CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM cue_cards WHERE document_id = $1", documentID).Scan(&count)
	return count, err
}

func (r *CueCardRepo) CountMasteredByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM cue_cards c
		JOIN review_stats s ON s.cue_card_id = c.id
		WHERE c.document_id = $1 AND s.streak >= $2
	`, documentID, models.MasteryStreak).Scan(&count)
	return count, err
}
