package services

import (
	"context"
	"fmt"
	"testing"

	"linecue-backend/internal/models"
)

func TestFallbackEvaluate_ExactRecall(t *testing.T) {
	expected := "To be, or not to be, that is the question:"

	result := FallbackEvaluate(expected, expected)

	if result.Score != 0.7 {
		t.Errorf("expected score 0.7 for exact recall under fallback, got %v", result.Score)
	}
	if result.Feedback == "" {
		t.Error("fallback must always carry a feedback message")
	}
}

func TestFallbackEvaluate_SubstringRule(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		answer   string
		score    float64
	}{
		{"contains prefix", "Whether 'tis nobler in the mind", "I think it was: whether tis...", 0.7},
		{"case insensitive", "HABE nun, ach! Philosophie", "habe nun ach philosophie", 0.7},
		{"misses prefix", "The slings and arrows", "completely different line", 0.3},
		{"empty answer", "To be, or not to be", "", 0.3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := FallbackEvaluate(tc.expected, tc.answer)
			if result.Score != tc.score {
				t.Errorf("expected score %v, got %v", tc.score, result.Score)
			}
		})
	}
}

type fakeAnswerEvaluator struct {
	result models.EvaluationResult
	err    error
}

func (f *fakeAnswerEvaluator) EvaluateAnswer(ctx context.Context, expected, user, strictness string) (models.EvaluationResult, error) {
	return f.result, f.err
}

func TestEvaluate_PrefersCollaborator(t *testing.T) {
	e := NewEvaluator(&fakeAnswerEvaluator{
		result: models.EvaluationResult{Score: 0.92, Feedback: "Fast perfekt, nur ein Wort vertauscht."},
	})

	result := e.Evaluate(context.Background(), "expected line", "user line", models.StrictnessMedium)

	if result.Score != 0.92 {
		t.Errorf("expected collaborator score 0.92, got %v", result.Score)
	}
}

func TestEvaluate_FallsBackOnError(t *testing.T) {
	e := NewEvaluator(&fakeAnswerEvaluator{err: fmt.Errorf("quota exceeded")})

	result := e.Evaluate(context.Background(), "To be, or not to be", "to be, or something", models.StrictnessStrict)

	if result.Score != 0.7 {
		t.Errorf("expected fallback score 0.7, got %v", result.Score)
	}
	if result.Feedback != fallbackFeedback {
		t.Errorf("expected fallback feedback, got %q", result.Feedback)
	}
}

func TestEvaluate_RejectsOutOfRangeScore(t *testing.T) {
	// A malformed collaborator response counts as a failure.
	e := NewEvaluator(&fakeAnswerEvaluator{
		result: models.EvaluationResult{Score: 7.5, Feedback: "broken"},
	})

	result := e.Evaluate(context.Background(), "The rest is silence", "unrelated", models.StrictnessLenient)

	if result.Score != 0.3 {
		t.Errorf("expected fallback score 0.3, got %v", result.Score)
	}
}
