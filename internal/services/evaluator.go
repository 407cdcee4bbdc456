package services

import (
	"context"
	"log"
	"strings"

	"linecue-backend/internal/models"
)

// fallbackFeedback is shown when the AI evaluator is unavailable and the
// local heuristic scored the answer instead.
const fallbackFeedback = "Konnte keine KI-Bewertung durchführen. Manuelle Prüfung empfohlen."

// AnswerEvaluator is the external semantic-evaluation collaborator.
type AnswerEvaluator interface {
	EvaluateAnswer(ctx context.Context, expectedText, userText, strictness string) (models.EvaluationResult, error)
}

type Evaluator struct {
	collaborator AnswerEvaluator
}

func NewEvaluator(collaborator AnswerEvaluator) *Evaluator {
	return &Evaluator{collaborator: collaborator}
}

// Evaluate scores a recalled line against the expected text. The AI
// collaborator is asked first; on any failure or out-of-range score the
// deterministic fallback takes over, so evaluation never blocks a session.
func (e *Evaluator) Evaluate(ctx context.Context, expectedText, userText, strictness string) models.EvaluationResult {
	if e.collaborator != nil {
		result, err := e.collaborator.EvaluateAnswer(ctx, expectedText, userText, strictness)
		if err == nil && result.Score >= 0 && result.Score <= 1 && result.Feedback != "" {
			return result
		}
		if err != nil {
			log.Printf("AI evaluation failed, using fallback scoring: %v", err)
		}
	}

	return FallbackEvaluate(expectedText, userText)
}

// FallbackEvaluate is the crude local scoring rule: 0.7 when the lowercase
// answer contains the first five characters of the lowercase expected text,
// 0.3 otherwise.
func FallbackEvaluate(expectedText, userText string) models.EvaluationResult {
	expected := strings.ToLower(expectedText)
	if runes := []rune(expected); len(runes) > 5 {
		expected = string(runes[:5])
	}

	score := 0.3
	if expected != "" && strings.Contains(strings.ToLower(userText), expected) {
		score = 0.7
	}

	return models.EvaluationResult{Score: score, Feedback: fallbackFeedback}
}
