package services

import (
	"strings"
	"testing"
)

func TestParseStringArray(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
		wantErr  bool
	}{
		{"plain array", `["ROMEO: But soft", "JULIET: O Romeo"]`, 2, false},
		{"fenced array", "```json\n[\"first block\", \"second block\"]\n```", 2, false},
		{"array inside prose", `Here you go: ["only block of dialogue"] hope that helps`, 1, false},
		{"blank elements dropped", `["kept line", "   "]`, 1, false},
		{"object instead of array", `{"blocks": []}`, 0, true},
		{"empty array", `[]`, 0, true},
		{"not json", `sorry, I cannot do that`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, err := parseStringArray(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", items)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != tc.expected {
				t.Errorf("expected %d items, got %d", tc.expected, len(items))
			}
		})
	}
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		score   float64
		wantErr bool
	}{
		{"plain object", `{"score": 0.85, "feedback": "Sehr gut, fast wortgleich."}`, 0.85, false},
		{"fenced object", "```json\n{\"score\": 0.4, \"feedback\": \"Der Anfang fehlt.\"}\n```", 0.4, false},
		{"score out of range", `{"score": 42, "feedback": "broken"}`, 0, true},
		{"missing feedback", `{"score": 0.9, "feedback": ""}`, 0, true},
		{"not an object", `[0.9]`, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseEvaluation(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Score != tc.score {
				t.Errorf("expected score %v, got %v", tc.score, result.Score)
			}
		})
	}
}

func TestBuildStructurePrompt_ContainsRawText(t *testing.T) {
	prompt := buildStructurePrompt("HAMLET:\nSein oder Nichtsein")
	if !strings.Contains(prompt, "Sein oder Nichtsein") {
		t.Error("prompt must embed the raw text")
	}
	if !strings.Contains(prompt, "JSON array") {
		t.Error("prompt must demand a JSON array")
	}
}

func TestBuildEvaluationPrompt_StrictnessVariants(t *testing.T) {
	for _, strictness := range []string{"lenient", "medium", "strict"} {
		prompt := buildEvaluationPrompt("expected", "attempt", strictness)
		if !strings.Contains(prompt, strictness) {
			t.Errorf("prompt for %s must name the strictness", strictness)
		}
	}
}
