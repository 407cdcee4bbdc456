package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"linecue-backend/internal/middleware"
	"linecue-backend/internal/models"
	"linecue-backend/internal/repository"
	"linecue-backend/internal/services"
)

const maxUploadSize = 20 * 1024 * 1024 // 20MB

type DocumentHandler struct {
	docRepo     *repository.DocumentRepo
	cueRepo     *repository.CueCardRepo
	jobRepo     *repository.JobRepo
	quizService *services.QuizService
	redis       *redis.Client
	storagePath string
}

func NewDocumentHandler(docRepo *repository.DocumentRepo, cueRepo *repository.CueCardRepo, jobRepo *repository.JobRepo, quizService *services.QuizService, redisClient *redis.Client, storagePath string) *DocumentHandler {
	return &DocumentHandler{
		docRepo:     docRepo,
		cueRepo:     cueRepo,
		jobRepo:     jobRepo,
		quizService: quizService,
		redis:       redisClient,
		storagePath: storagePath,
	}
}

// Upload accepts a script file (.pdf, .docx, .txt), stores it, and queues an
// import job. Extraction and segmentation happen in the worker; the client
// follows progress over the WebSocket.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 20MB limit", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".docx" && ext != ".txt" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED_FORMAT", "Only .pdf, .docx and .txt scripts are supported", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	title := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if strings.TrimSpace(title) == "" {
		title = "Unbenanntes Skript"
	}

	doc := &models.Document{
		UserID:   userID,
		Title:    title,
		Language: "de",
		Status:   "pending",
	}
	if err := h.docRepo.Create(r.Context(), doc); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create document", r))
		return
	}

	storedPath := filepath.Join(h.storagePath, userID.String(), doc.ID.String()+ext)
	if err := saveUpload(file, storedPath); err != nil {
		log.Printf("failed to store upload for document %s: %v", doc.ID, err)
		h.docRepo.Delete(r.Context(), doc.ID)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	config, _ := json.Marshal(map[string]string{"file_path": storedPath})
	job := &models.Job{
		UserID:      userID,
		Type:        "script-import",
		ReferenceID: doc.ID,
		ConfigJSON:  config,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create import job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), "queue:script-import", string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue script-import job %s: %v", job.ID, err)
		h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Import queue is unavailable", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"document_id": doc.ID,
		"job_id":      job.ID,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	docs, err := h.docRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch documents", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

// Get returns the document with its blocks, cue cards and derived progress.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	blocks, err := h.docRepo.ListBlocks(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch blocks", r))
		return
	}

	cues, err := h.cueRepo.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cue cards", r))
		return
	}

	mastered, err := h.cueRepo.CountMasteredByDocument(r.Context(), doc.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch progress", r))
		return
	}

	progress := services.ComputeDocumentProgress(doc.ID, len(blocks), len(cues), mastered)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document":  doc,
		"blocks":    blocks,
		"cue_cards": cues,
		"progress":  progress,
	})
}

// Delete removes the document and everything under it; blocks, cue cards and
// review stats cascade. Any running quiz session on it is cancelled first.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	h.quizService.CancelByDocument(doc.ID)

	if err := h.docRepo.Delete(r.Context(), doc.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete document", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}

func (h *DocumentHandler) ownedDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return nil, false
	}

	doc, err := h.docRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Document not found", r))
		return nil, false
	}

	if doc.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return doc, true
}

func saveUpload(src io.Reader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
