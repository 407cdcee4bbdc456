package services

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"linecue-backend/internal/models"
)

// minBlockLength filters page numbers and other extraction noise; fragments
// of this length or shorter are discarded.
const minBlockLength = 5

// speakerLabelPattern matches a dialogue line opener like "ROMEO:" or
// "ERSTER WACHMANN :".
var speakerLabelPattern = regexp.MustCompile(`^[A-ZÄÖÜ]{2,}(\s[A-ZÄÖÜ]{2,})*\s?:`)

// capsLinePattern matches an all-caps token standing alone on a line,
// typically a character name above their lines.
var capsLinePattern = regexp.MustCompile(`^[A-ZÄÖÜ]{2,}$`)

// ScriptStructurer is the external collaborator that cleans raw extracted
// text and splits it into ordered dialogue strings.
type ScriptStructurer interface {
	StructureScript(ctx context.Context, rawText string) ([]string, error)
}

type Segmenter struct {
	structurer ScriptStructurer
}

func NewSegmenter(structurer ScriptStructurer) *Segmenter {
	return &Segmenter{structurer: structurer}
}

// Segment turns raw extracted text into ordered text blocks. The AI
// structurer is preferred; any failure or malformed result falls back to
// the deterministic pattern split so an import never fails past extraction.
func (s *Segmenter) Segment(ctx context.Context, rawText string, documentID uuid.UUID) []models.TextBlock {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}

	if s.structurer != nil {
		lines, err := s.structurer.StructureScript(ctx, rawText)
		if err == nil {
			if blocks := wrapStructuredLines(lines, documentID); blocks != nil {
				return blocks
			}
		} else {
			log.Printf("Script structuring failed, using pattern split: %v", err)
		}
	}

	return SplitTextIntoBlocks(rawText, documentID)
}

// wrapStructuredLines validates the collaborator result and wraps it into
// blocks. Returns nil when the result is unusable (empty, or any element
// blank after trimming), which triggers the fallback.
func wrapStructuredLines(lines []string, documentID uuid.UUID) []models.TextBlock {
	if len(lines) == 0 {
		return nil
	}

	blocks := make([]models.TextBlock, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			return nil
		}
		blocks = append(blocks, models.TextBlock{
			ID:         uuid.New(),
			DocumentID: documentID,
			Text:       text,
			OrderIndex: len(blocks),
		})
	}
	return blocks
}

// SplitTextIntoBlocks is the deterministic segmentation heuristic. It cuts
// the text at speaker labels ("NAME:" or an all-caps name alone on a line)
// and at blank lines; label lines become their own fragments. Trimmed
// fragments of length <= 5 are dropped as noise.
func SplitTextIntoBlocks(rawText string, documentID uuid.UUID) []models.TextBlock {
	rawText = strings.ReplaceAll(rawText, "\r\n", "\n")

	var fragments []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		fragments = append(fragments, strings.Join(current, "\n"))
		current = current[:0]
	}

	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || trimmed == PageSentinel:
			flush()
		case speakerLabelPattern.MatchString(trimmed) || capsLinePattern.MatchString(trimmed):
			flush()
			fragments = append(fragments, trimmed)
		default:
			current = append(current, trimmed)
		}
	}
	flush()

	var blocks []models.TextBlock
	for _, fragment := range fragments {
		text := strings.TrimSpace(fragment)
		if len(text) <= minBlockLength {
			continue
		}
		blocks = append(blocks, models.TextBlock{
			ID:         uuid.New(),
			DocumentID: documentID,
			Text:       text,
			OrderIndex: len(blocks),
		})
	}
	return blocks
}
