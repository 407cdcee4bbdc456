package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linecue-backend/internal/models"
)

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *models.Document) error {
	d.ID = uuid.New()

	query := `INSERT INTO documents (id, user_id, title, content_preview, language, status, block_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING imported_at`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.UserID, d.Title, d.ContentPreview, d.Language, d.Status, d.BlockCount,
	).Scan(&d.ImportedAt)
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d := &models.Document{}
	query := `SELECT id, user_id, title, content_preview, language, status, block_count, imported_at
		FROM documents WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.Title, &d.ContentPreview, &d.Language, &d.Status, &d.BlockCount, &d.ImportedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DocumentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	query := `SELECT id, user_id, title, content_preview, language, status, block_count, imported_at
		FROM documents WHERE user_id = $1 ORDER BY imported_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		d := &models.Document{}
		err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.ContentPreview, &d.Language, &d.Status, &d.BlockCount, &d.ImportedAt)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE documents SET status = $1 WHERE id = $2", status, id)
	return err
}

// FinishImport records the outcome of a completed import in one statement.
func (r *DocumentRepo) FinishImport(ctx context.Context, id uuid.UUID, preview string, blockCount int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE documents SET content_preview = $1, block_count = $2, status = 'completed' WHERE id = $3",
		preview, blockCount, id,
	)
	return err
}

// Delete removes the document; blocks, cue cards and review stats go with it
// via ON DELETE CASCADE.
func (r *DocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	return err
}

// Block operations

// ReplaceBlocks swaps the document's block set atomically. A re-import never
// leaves a mix of old and new blocks behind.
func (r *DocumentRepo) ReplaceBlocks(ctx context.Context, documentID uuid.UUID, blocks []models.TextBlock) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM text_blocks WHERE document_id = $1", documentID); err != nil {
		return err
	}

	for _, b := range blocks {
		_, err := tx.Exec(ctx,
			`INSERT INTO text_blocks (id, document_id, text, order_index, act, scene)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, documentID, b.Text, b.OrderIndex, b.Act, b.Scene,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *DocumentRepo) ListBlocks(ctx context.Context, documentID uuid.UUID) ([]models.TextBlock, error) {
	query := `SELECT id, document_id, text, order_index, act, scene
		FROM text_blocks WHERE document_id = $1 ORDER BY order_index ASC`

	rows, err := r.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]models.TextBlock, 0)
	for rows.Next() {
		b := models.TextBlock{}
		if err := rows.Scan(&b.ID, &b.DocumentID, &b.Text, &b.OrderIndex, &b.Act, &b.Scene); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *DocumentRepo) GetBlock(ctx context.Context, blockID uuid.UUID) (*models.TextBlock, error) {
	b := &models.TextBlock{}
	query := `SELECT id, document_id, text, order_index, act, scene
		FROM text_blocks WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, blockID).Scan(
		&b.ID, &b.DocumentID, &b.Text, &b.OrderIndex, &b.Act, &b.Scene,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *DocumentRepo) CountBlocks(ctx context.Context, documentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM text_blocks WHERE document_id = $1", documentID).Scan(&count)
	return count, err
}

// OwnsBlock reports whether the block belongs to a document of this user.
func (r *DocumentRepo) OwnsBlock(ctx context.Context, blockID, userID uuid.UUID) (bool, error) {
	var owner uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT d.user_id FROM text_blocks b
		JOIN documents d ON d.id = b.document_id
		WHERE b.id = $1
	`, blockID).Scan(&owner)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return owner == userID, nil
}
