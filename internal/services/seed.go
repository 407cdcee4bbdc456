package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"linecue-backend/internal/models"
	"linecue-backend/internal/repository"
)

// demoScript is a short Hamlet excerpt (Schlegel translation) used to seed
// new accounts with something rehearsable.
const demoScript = `HAMLET:
Sein oder Nichtsein, das ist hier die Frage:
Ob's edler im Gemüt, die Pfeil und Schleudern
des wütenden Geschicks erdulden, oder,
sich waffnend gegen eine See von Plagen,
durch Widerstand sie enden.

OPHELIA:
Mein Prinz, wie geht es Euch seit so viel Tagen?

HAMLET:
Ich dank Euch untertänig: wohl, wohl, wohl.

OPHELIA:
Mein Prinz, ich hab von Euch noch Angedenken,
die ich schon längst begehrt zurückzugeben.
Ich bitt Euch nun, nehmt sie zurück.

HAMLET:
Nein, nicht doch; ich gab Euch niemals was.`

const demoTitle = "Hamlet (Demo)"

type SeedService struct {
	docRepo *repository.DocumentRepo
	cueRepo *repository.CueCardRepo
}

func NewSeedService(docRepo *repository.DocumentRepo, cueRepo *repository.CueCardRepo) *SeedService {
	return &SeedService{docRepo: docRepo, cueRepo: cueRepo}
}

// SeedDemoDocument creates the demo script with one ready-made cue card so a
// fresh account can start a quiz immediately.
func (s *SeedService) SeedDemoDocument(ctx context.Context, userID uuid.UUID) error {
	doc := &models.Document{
		UserID:   userID,
		Title:    demoTitle,
		Language: "de",
		Status:   "completed",
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return err
	}

	blocks := SplitTextIntoBlocks(demoScript, doc.ID)
	if err := s.docRepo.ReplaceBlocks(ctx, doc.ID, blocks); err != nil {
		return err
	}

	preview := demoScript
	if runes := []rune(preview); len(runes) > 1000 {
		preview = string(runes[:1000])
	}
	if err := s.docRepo.FinishImport(ctx, doc.ID, preview, len(blocks)); err != nil {
		return err
	}

	// Cue the monologue opening if the split produced it.
	for _, b := range blocks {
		if strings.HasPrefix(b.Text, "Sein oder Nichtsein") {
			cue := &models.CueCard{
				DocumentID:   doc.ID,
				TextBlockID:  b.ID,
				CueWord:      "Frage",
				ExpectedText: b.Text,
				Strictness:   models.StrictnessMedium,
				Keywords:     []string{"Sein", "Nichtsein"},
			}
			return s.cueRepo.Upsert(ctx, cue)
		}
	}
	return nil
}
