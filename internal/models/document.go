package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Title          string    `json:"title"`
	ContentPreview string    `json:"content_preview"`
	Language       string    `json:"language"`
	Status         string    `json:"status"` // "pending" | "processing" | "completed" | "failed"
	BlockCount     int       `json:"block_count"`
	ImportedAt     time.Time `json:"imported_at"`
}

// TextBlock is one segmented unit of script text (dialogue or stage
// direction). Blocks are created at import time and never edited; a
// re-import replaces the whole set.
type TextBlock struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Text       string    `json:"text"`
	OrderIndex int       `json:"order_index"`
	Act        *string   `json:"act,omitempty"`
	Scene      *string   `json:"scene,omitempty"`
}

type DocumentProgress struct {
	DocumentID     uuid.UUID `json:"document_id"`
	TotalBlocks    int       `json:"total_blocks"`
	CueCount       int       `json:"cue_count"`
	MasteredCues   int       `json:"mastered_cues"`
	PrepPercent    float64   `json:"prep_percent"`
	MasteryPercent float64   `json:"mastery_percent"`
}
