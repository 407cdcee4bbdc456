package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"linecue-backend/internal/models"
)

type scriptedScorer struct {
	scores []float64
	calls  int
}

func (s *scriptedScorer) Evaluate(ctx context.Context, expected, user, strictness string) models.EvaluationResult {
	score := 0.9
	if s.calls < len(s.scores) {
		score = s.scores[s.calls]
	}
	s.calls++
	return models.EvaluationResult{Score: score, Feedback: "ok"}
}

type recordingTracker struct {
	recorded []uuid.UUID
}

func (r *recordingTracker) RecordResult(ctx context.Context, cueCardID uuid.UUID, score float64, now time.Time) (models.ReviewStat, error) {
	r.recorded = append(r.recorded, cueCardID)
	return models.ReviewStat{CueCardID: cueCardID, LastScore: score}, nil
}

func testCues(n int) []models.CueCard {
	cues := make([]models.CueCard, n)
	for i := range cues {
		cues[i] = models.CueCard{
			ID:           uuid.New(),
			DocumentID:   uuid.New(),
			TextBlockID:  uuid.New(),
			CueWord:      "Question",
			ExpectedText: "To be, or not to be, that is the question:",
			Strictness:   models.StrictnessMedium,
		}
	}
	return cues
}

func TestQuizStart_EmptyCues(t *testing.T) {
	svc := NewQuizService(&scriptedScorer{}, &recordingTracker{})

	_, err := svc.Start(uuid.New(), uuid.New(), nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for empty cue list, got %v", err)
	}
}

func TestQuizSession_FullPass(t *testing.T) {
	tracker := &recordingTracker{}
	svc := NewQuizService(&scriptedScorer{}, tracker)
	userID := uuid.New()
	cues := testCues(2)
	ctx := context.Background()

	view, err := svc.Start(userID, cues[0].DocumentID, cues)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if view.Index != 0 || view.Progress != 0 {
		t.Errorf("fresh session should be at index 0 with progress 0, got %d / %v", view.Index, view.Progress)
	}

	view, err = svc.Submit(ctx, view.SessionID, userID, "to be or not to be")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if view.Feedback == nil {
		t.Fatal("expected feedback after submit")
	}

	view, err = svc.Advance(view.SessionID, userID)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if view.Index != 1 {
		t.Errorf("expected index 1 after advance, got %d", view.Index)
	}
	if view.Feedback != nil {
		t.Error("advance must clear feedback")
	}
	if view.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %v", view.Progress)
	}

	if _, err = svc.Submit(ctx, view.SessionID, userID, "second answer"); err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	view, err = svc.Advance(view.SessionID, userID)
	if err != nil {
		t.Fatalf("final Advance failed: %v", err)
	}
	if !view.Finished {
		t.Fatal("expected session to be finished after last card")
	}

	// Advancing a finished session is a no-op.
	again, err := svc.Advance(view.SessionID, userID)
	if err != nil {
		t.Fatalf("Advance on finished session errored: %v", err)
	}
	if !again.Finished {
		t.Error("finished session must stay finished")
	}

	if len(tracker.recorded) != 2 {
		t.Errorf("expected 2 recorded results, got %d", len(tracker.recorded))
	}
}

func TestQuizSubmit_EmptyAnswerRejected(t *testing.T) {
	svc := NewQuizService(&scriptedScorer{}, &recordingTracker{})
	userID := uuid.New()
	cues := testCues(1)

	view, _ := svc.Start(userID, cues[0].DocumentID, cues)

	_, err := svc.Submit(context.Background(), view.SessionID, userID, "   ")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for blank answer, got %v", err)
	}
}

func TestQuizSubmit_ResubmitIsNoOp(t *testing.T) {
	scorer := &scriptedScorer{}
	tracker := &recordingTracker{}
	svc := NewQuizService(scorer, tracker)
	userID := uuid.New()
	cues := testCues(1)
	ctx := context.Background()

	view, _ := svc.Start(userID, cues[0].DocumentID, cues)

	if _, err := svc.Submit(ctx, view.SessionID, userID, "first try"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := svc.Submit(ctx, view.SessionID, userID, "second try"); err != nil {
		t.Fatalf("re-Submit errored instead of no-op: %v", err)
	}

	if scorer.calls != 1 {
		t.Errorf("expected exactly 1 evaluation, got %d", scorer.calls)
	}
	if len(tracker.recorded) != 1 {
		t.Errorf("expected exactly 1 recorded result, got %d", len(tracker.recorded))
	}
}

func TestQuizAdvance_WithoutFeedbackIsNoOp(t *testing.T) {
	svc := NewQuizService(&scriptedScorer{}, &recordingTracker{})
	userID := uuid.New()
	cues := testCues(2)

	view, _ := svc.Start(userID, cues[0].DocumentID, cues)

	view, err := svc.Advance(view.SessionID, userID)
	if err != nil {
		t.Fatalf("Advance errored: %v", err)
	}
	if view.Index != 0 {
		t.Errorf("advance without feedback must not move, got index %d", view.Index)
	}
}

func TestQuizCancel_KeepsRecordedResults(t *testing.T) {
	tracker := &recordingTracker{}
	svc := NewQuizService(&scriptedScorer{}, tracker)
	userID := uuid.New()
	cues := testCues(2)
	ctx := context.Background()

	view, _ := svc.Start(userID, cues[0].DocumentID, cues)
	svc.Submit(ctx, view.SessionID, userID, "an answer")

	svc.Cancel(view.SessionID, userID)

	if _, err := svc.Get(view.SessionID, userID); err == nil {
		t.Error("cancelled session should be gone")
	}
	if len(tracker.recorded) != 1 {
		t.Errorf("cancel must not roll back recorded results, got %d", len(tracker.recorded))
	}
}

func TestQuizHint_RevealedAndClearedOnAdvance(t *testing.T) {
	svc := NewQuizService(&scriptedScorer{}, &recordingTracker{})
	userID := uuid.New()
	cues := testCues(2)
	ctx := context.Background()

	view, _ := svc.Start(userID, cues[0].DocumentID, cues)
	if view.ExpectedText != "" {
		t.Error("expected text must be hidden before hint or feedback")
	}

	view, err := svc.RevealHint(view.SessionID, userID)
	if err != nil {
		t.Fatalf("RevealHint failed: %v", err)
	}
	if view.ExpectedText == "" {
		t.Error("hint must reveal the expected text")
	}

	svc.Submit(ctx, view.SessionID, userID, "answer")
	view, _ = svc.Advance(view.SessionID, userID)
	if view.ExpectedText != "" {
		t.Error("advance must clear the hint reveal")
	}
}
