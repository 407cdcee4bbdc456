package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"linecue-backend/internal/middleware"
	"linecue-backend/internal/models"
	"linecue-backend/internal/repository"
	"linecue-backend/internal/services"
)

type QuizHandler struct {
	quizService *services.QuizService
	cueRepo     *repository.CueCardRepo
	docRepo     *repository.DocumentRepo
}

func NewQuizHandler(quizService *services.QuizService, cueRepo *repository.CueCardRepo, docRepo *repository.DocumentRepo) *QuizHandler {
	return &QuizHandler{quizService: quizService, cueRepo: cueRepo, docRepo: docRepo}
}

// Start opens a quiz session over the document's cue cards in script order.
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	doc, err := h.docRepo.GetByID(r.Context(), documentID)
	if err != nil || doc.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
		return
	}

	cues, err := h.cueRepo.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cue cards", r))
		return
	}

	view, err := h.quizService.Start(userID, doc.ID, cues)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := sessionParams(w, r)
	if !ok {
		return
	}

	view, err := h.quizService.Get(sessionID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Submit evaluates the recalled line for the current cue card.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := sessionParams(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	view, err := h.quizService.Submit(r.Context(), sessionID, userID, req.Answer)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := sessionParams(w, r)
	if !ok {
		return
	}

	view, err := h.quizService.Advance(sessionID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Hint(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := sessionParams(w, r)
	if !ok {
		return
	}

	view, err := h.quizService.RevealHint(sessionID, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuizHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := sessionParams(w, r)
	if !ok {
		return
	}

	h.quizService.Cancel(sessionID, userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz session cancelled"})
}

func sessionParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return uuid.Nil, uuid.Nil, false
	}
	return sessionID, middleware.GetUserID(r.Context()), true
}
