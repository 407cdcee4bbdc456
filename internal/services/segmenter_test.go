package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSplitTextIntoBlocks_SpeakerLabels(t *testing.T) {
	docID := uuid.New()
	raw := "ROMEO:\nHello\n\nJULIET:\nHi"

	blocks := SplitTextIntoBlocks(raw, docID)

	// "Hello" and "Hi" are 5 chars or fewer and get dropped as noise.
	expected := []string{"ROMEO:", "JULIET:"}
	if len(blocks) != len(expected) {
		t.Fatalf("expected %d blocks, got %d: %+v", len(expected), len(blocks), blocks)
	}

	for i, b := range blocks {
		if b.Text != expected[i] {
			t.Errorf("block %d: expected text %q, got %q", i, expected[i], b.Text)
		}
		if b.OrderIndex != i {
			t.Errorf("block %d: expected order index %d, got %d", i, i, b.OrderIndex)
		}
		if b.DocumentID != docID {
			t.Errorf("block %d: wrong document id", i)
		}
	}
}

func TestSplitTextIntoBlocks_EmptyInput(t *testing.T) {
	if blocks := SplitTextIntoBlocks("", uuid.New()); len(blocks) != 0 {
		t.Errorf("expected no blocks for empty input, got %d", len(blocks))
	}
	if blocks := SplitTextIntoBlocks("  \n\n  ", uuid.New()); len(blocks) != 0 {
		t.Errorf("expected no blocks for whitespace input, got %d", len(blocks))
	}
}

func TestSplitTextIntoBlocks_NoiseFiltered(t *testing.T) {
	raw := "HAMLET:\nTo be, or not to be, that is the question.\n\n42\n\nWhether 'tis nobler in the mind to suffer"

	blocks := SplitTextIntoBlocks(raw, uuid.New())

	for _, b := range blocks {
		if b.Text == "42" {
			t.Error("page-number artifact should have been filtered")
		}
		if len(b.Text) <= 5 {
			t.Errorf("block %q shorter than minimum survived", b.Text)
		}
	}

	// Order indexes must be contiguous from zero after filtering.
	for i, b := range blocks {
		if b.OrderIndex != i {
			t.Errorf("expected contiguous order index %d, got %d", i, b.OrderIndex)
		}
	}
}

func TestSplitTextIntoBlocks_BlankLineSeparator(t *testing.T) {
	raw := "First paragraph of stage direction.\n\nSecond paragraph, still direction."

	blocks := SplitTextIntoBlocks(raw, uuid.New())
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[0].Text, "First") || !strings.HasPrefix(blocks[1].Text, "Second") {
		t.Errorf("blocks out of order: %q, %q", blocks[0].Text, blocks[1].Text)
	}
}

type fakeStructurer struct {
	lines []string
	err   error
}

func (f *fakeStructurer) StructureScript(ctx context.Context, rawText string) ([]string, error) {
	return f.lines, f.err
}

func TestSegment_UsesStructurer(t *testing.T) {
	docID := uuid.New()
	seg := NewSegmenter(&fakeStructurer{lines: []string{"ROMEO: But soft, what light through yonder window breaks?", "JULIET: O Romeo, Romeo, wherefore art thou Romeo?"}})

	blocks := seg.Segment(context.Background(), "raw extracted text", docID)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks from structurer, got %d", len(blocks))
	}
	if blocks[0].OrderIndex != 0 || blocks[1].OrderIndex != 1 {
		t.Error("structured blocks must keep their position as order index")
	}
}

func TestSegment_FallsBackOnStructurerError(t *testing.T) {
	seg := NewSegmenter(&fakeStructurer{err: fmt.Errorf("model unavailable")})

	blocks := seg.Segment(context.Background(), "HAMLET:\nThe rest is silence.", uuid.New())

	if len(blocks) == 0 {
		t.Fatal("expected fallback blocks, got none")
	}
}

func TestSegment_FallsBackOnMalformedResult(t *testing.T) {
	// A blank element means the collaborator returned garbage.
	seg := NewSegmenter(&fakeStructurer{lines: []string{"HORATIO: Good night, sweet prince.", "   "}})

	blocks := seg.Segment(context.Background(), "HORATIO:\nGood night, sweet prince.", uuid.New())

	for _, b := range blocks {
		if strings.TrimSpace(b.Text) == "" {
			t.Fatal("blank block leaked through validation")
		}
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	seg := NewSegmenter(&fakeStructurer{lines: []string{"should not be called"}})
	if blocks := seg.Segment(context.Background(), "   ", uuid.New()); len(blocks) != 0 {
		t.Errorf("empty input must yield an empty sequence, got %d blocks", len(blocks))
	}
}
