package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"linecue-backend/internal/models"
	"linecue-backend/internal/services"
)

// ─── Error Envelope Tests ───

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"cue_word": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "Email already in use"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Quiz session not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid email or password"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"external", &services.ExternalError{Op: "evaluate", Message: "model unavailable"}, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error envelope: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("expected request id propagated, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/blocks/x/cue", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{Fields: map[string]string{
		"cue_word": "Cue word is required",
	}})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if resp.Error.Fields["cue_word"] != "Cue word is required" {
		t.Errorf("field errors must survive the envelope, got %v", resp.Error.Fields)
	}
}

func TestWriteJSON_SetsContentType(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

// ─── Cue Suggestion Fallback ───

func TestFallbackSuggestions_Fixed(t *testing.T) {
	if len(fallbackSuggestions) != 2 {
		t.Fatalf("expected 2 fallback suggestions, got %d", len(fallbackSuggestions))
	}
	if fallbackSuggestions[0] != "Stichwort 1" || fallbackSuggestions[1] != "Stichwort 2" {
		t.Errorf("unexpected fallback suggestions: %v", fallbackSuggestions)
	}
}
