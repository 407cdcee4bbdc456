package models

import (
	"time"

	"github.com/google/uuid"
)

// Strictness is passed through to the evaluator and only influences how
// literally the recalled line must match the expected text.
const (
	StrictnessLenient = "lenient"
	StrictnessMedium  = "medium"
	StrictnessStrict  = "strict"
)

func ValidStrictness(s string) bool {
	return s == StrictnessLenient || s == StrictnessMedium || s == StrictnessStrict
}

// CueCard binds a user-chosen trigger word to exactly one text block.
// ExpectedText is a copy of the block's text taken at creation time.
type CueCard struct {
	ID           uuid.UUID `json:"id"`
	DocumentID   uuid.UUID `json:"document_id"`
	TextBlockID  uuid.UUID `json:"text_block_id"`
	CueWord      string    `json:"cue_word"`
	ExpectedText string    `json:"expected_text"`
	Strictness   string    `json:"strictness"`
	Keywords     []string  `json:"keywords"`
	CreatedAt    time.Time `json:"created_at"`
}

type UpsertCueRequest struct {
	CueWord    string   `json:"cue_word"`
	Strictness string   `json:"strictness"`
	Keywords   []string `json:"keywords"`
}
