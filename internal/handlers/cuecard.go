package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"linecue-backend/internal/middleware"
	"linecue-backend/internal/models"
	"linecue-backend/internal/repository"
)

// fallbackSuggestions is returned when the suggestion collaborator fails;
// choosing a cue word must never be blocked by an AI outage.
var fallbackSuggestions = []string{"Stichwort 1", "Stichwort 2"}

type cueSuggester interface {
	SuggestCueWords(ctx context.Context, blockText string) ([]string, error)
}

type CueCardHandler struct {
	cueRepo   *repository.CueCardRepo
	docRepo   *repository.DocumentRepo
	suggester cueSuggester
}

func NewCueCardHandler(cueRepo *repository.CueCardRepo, docRepo *repository.DocumentRepo, suggester cueSuggester) *CueCardHandler {
	return &CueCardHandler{cueRepo: cueRepo, docRepo: docRepo, suggester: suggester}
}

// Upsert creates or replaces the cue card on a text block. A block holds at
// most one cue; setting a new one overwrites word, strictness and keywords
// but keeps the accumulated review stats.
func (h *CueCardHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	block, ok := h.ownedBlock(w, r)
	if !ok {
		return
	}

	var req models.UpsertCueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if strings.TrimSpace(req.CueWord) == "" {
		fieldErrors["cue_word"] = "Cue word is required"
	}
	if req.Strictness == "" {
		req.Strictness = models.StrictnessMedium
	} else if !models.ValidStrictness(req.Strictness) {
		fieldErrors["strictness"] = "Strictness must be lenient, medium or strict"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	cue := &models.CueCard{
		DocumentID:   block.DocumentID,
		TextBlockID:  block.ID,
		CueWord:      strings.TrimSpace(req.CueWord),
		ExpectedText: block.Text,
		Strictness:   req.Strictness,
		Keywords:     req.Keywords,
	}
	if err := h.cueRepo.Upsert(r.Context(), cue); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save cue card", r))
		return
	}

	writeJSON(w, http.StatusOK, cue)
}

// Delete removes a cue card by id. Deleting one that is already gone is a
// no-op, not an error.
func (h *CueCardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid cue card ID", r))
		return
	}

	cue, err := h.cueRepo.GetByID(r.Context(), id)
	if err != nil {
		// Already absent: the desired state is reached.
		writeJSON(w, http.StatusOK, map[string]string{"message": "Cue card deleted"})
		return
	}

	doc, err := h.docRepo.GetByID(r.Context(), cue.DocumentID)
	if err != nil || doc.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	if err := h.cueRepo.Delete(r.Context(), cue.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete cue card", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Cue card deleted"})
}

// ListByDocument returns the document's cue cards in script order.
func (h *CueCardHandler) ListByDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	doc, err := h.docRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
		return
	}
	if doc.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	cues, err := h.cueRepo.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cue cards", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cue_cards": cues,
		"total":     len(cues),
	})
}

// Suggest asks the AI for cue-word candidates for the block, falling back to
// generic placeholders when the collaborator is unavailable.
func (h *CueCardHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	block, ok := h.ownedBlock(w, r)
	if !ok {
		return
	}

	words, err := h.suggester.SuggestCueWords(r.Context(), block.Text)
	if err != nil {
		log.Printf("cue suggestion failed for block %s: %v", block.ID, err)
		words = fallbackSuggestions
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": words,
	})
}

func (h *CueCardHandler) ownedBlock(w http.ResponseWriter, r *http.Request) (*models.TextBlock, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid block ID", r))
		return nil, false
	}

	block, err := h.docRepo.GetBlock(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Text block not found", r))
		return nil, false
	}

	owns, err := h.docRepo.OwnsBlock(r.Context(), block.ID, middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to verify block ownership", r))
		return nil, false
	}
	if !owns {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return block, true
}
