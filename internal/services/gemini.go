package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"linecue-backend/internal/models"
)

// structurePrefixLimit bounds how much raw script text is sent to the
// structuring call.
const structurePrefixLimit = 15000

type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	redis    *redis.Client
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey string, concurrentReqs int, redisClient *redis.Client) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		model:    model,
		redis:    redisClient,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (s *GeminiService) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	s.redis.Publish(ctx, fmt.Sprintf("rehearsal_updates:%s", userID.String()), string(data))
}

// StructureScript asks the model to clean messy extracted script text and
// split it into dialogue blocks. Returns an error on any malformed result
// so the caller can fall back to the pattern split.
func (s *GeminiService) StructureScript(ctx context.Context, rawText string) ([]string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	if runes := []rune(rawText); len(runes) > structurePrefixLimit {
		rawText = string(runes[:structurePrefixLimit])
	}

	prompt := buildStructurePrompt(rawText)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &ExternalError{Op: "structure", Message: err.Error()}
	}

	lines, err := parseStringArray(extractText(resp))
	if err != nil {
		return nil, &ExternalError{Op: "structure", Message: err.Error()}
	}
	return lines, nil
}

// EvaluateAnswer asks the model to score a recalled line against the
// expected text under the given strictness.
func (s *GeminiService) EvaluateAnswer(ctx context.Context, expectedText, userText, strictness string) (models.EvaluationResult, error) {
	if err := s.acquireRate(ctx); err != nil {
		return models.EvaluationResult{}, err
	}
	defer s.releaseRate()

	prompt := buildEvaluationPrompt(expectedText, userText, strictness)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.EvaluationResult{}, &ExternalError{Op: "evaluate", Message: err.Error()}
	}

	result, err := parseEvaluation(extractText(resp))
	if err != nil {
		return models.EvaluationResult{}, &ExternalError{Op: "evaluate", Message: err.Error()}
	}
	return result, nil
}

// SuggestCueWords asks the model for three cue-word candidates for a block.
func (s *GeminiService) SuggestCueWords(ctx context.Context, blockText string) ([]string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildSuggestionPrompt(blockText)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &ExternalError{Op: "suggest", Message: err.Error()}
	}

	words, err := parseStringArray(extractText(resp))
	if err != nil {
		return nil, &ExternalError{Op: "suggest", Message: err.Error()}
	}
	return words, nil
}

// Prompt builders

func buildStructurePrompt(rawText string) string {
	var b strings.Builder

	b.WriteString("This text was extracted from a theater script PDF and is messy.\n")
	b.WriteString("Clean it up and split it into logical dialogue blocks.\n")
	b.WriteString("Remove page numbers, headers, and footer artifacts.\n")
	b.WriteString("Preserve character names if possible.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array of strings, where each string is one clean block of dialogue or stage direction. No preamble, no markdown, no backticks.\n\n")
	b.WriteString("---RAW TEXT START---\n")
	b.WriteString(rawText)
	b.WriteString("\n---RAW TEXT END---\n")

	return b.String()
}

func buildEvaluationPrompt(expectedText, userText, strictness string) string {
	var b strings.Builder

	b.WriteString("You are a prompter helping an actor rehearse lines. Evaluate the actor's recollection of this line.\n\n")
	b.WriteString(fmt.Sprintf("Expected: %q\n", expectedText))
	b.WriteString(fmt.Sprintf("Actor's attempt: %q\n", userText))
	b.WriteString(fmt.Sprintf("Strictness: %s\n\n", strictness))

	switch strictness {
	case models.StrictnessLenient:
		b.WriteString("Lenient = meaning and key phrases matter, wording may differ.\n")
	case models.StrictnessStrict:
		b.WriteString("Strict = the wording must match almost word for word.\n")
	default:
		b.WriteString("Medium = wording should be close, small slips are acceptable.\n")
	}

	b.WriteString("\nCRITICAL: Return ONLY a valid JSON object, no preamble, no markdown, no backticks:\n")
	b.WriteString(`{"score": <number between 0 and 1>, "feedback": "<short helpful feedback in German>"}` + "\n")

	return b.String()
}

func buildSuggestionPrompt(blockText string) string {
	var b strings.Builder

	b.WriteString("Analyze this theater script block and suggest 3 unique cue words (Stichworte) that would trigger this line for an actor.\n\n")
	b.WriteString(fmt.Sprintf("Text: %q\n\n", blockText))
	b.WriteString("CRITICAL: Return ONLY a valid JSON array of strings. No preamble, no markdown, no backticks.\n")

	return b.String()
}

// Helper functions

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func trimCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// parseStringArray decodes a JSON array of non-empty strings, tolerating a
// code fence or surrounding prose. Anything else is an error.
func parseStringArray(raw string) ([]string, error) {
	raw = trimCodeFence(raw)

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("response is not a JSON array")
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
			return nil, fmt.Errorf("response is not a JSON array of strings")
		}
	}

	var out []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("response array is empty")
	}
	return out, nil
}

// parseEvaluation decodes and validates the evaluation response shape.
func parseEvaluation(raw string) (models.EvaluationResult, error) {
	raw = trimCodeFence(raw)

	var result models.EvaluationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return models.EvaluationResult{}, fmt.Errorf("response is not a JSON object")
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
			return models.EvaluationResult{}, fmt.Errorf("response is not a valid evaluation object")
		}
	}

	if result.Score < 0 || result.Score > 1 {
		return models.EvaluationResult{}, fmt.Errorf("score %v outside [0,1]", result.Score)
	}
	if strings.TrimSpace(result.Feedback) == "" {
		return models.EvaluationResult{}, fmt.Errorf("missing feedback")
	}
	return result, nil
}
