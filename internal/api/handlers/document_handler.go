package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/avoronov/textura/internal/core/ingest"
	"github.com/avoronov/textura/internal/models"
	"github.com/avoronov/textura/internal/services"
)

const maxUploadBytes = 52 << 20 // 52 MB

type DocumentHandler struct {
	docs     *services.DocumentService
	ingestor *services.DocumentIngestor
	log      *log.Logger
}

func NewDocumentHandler(docs *services.DocumentService, ingestor *services.DocumentIngestor, logger *log.Logger) *DocumentHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &DocumentHandler{docs: docs, ingestor: ingestor, log: logger}
}

type uploadResponse struct {
	Document  *models.Document `json:"document"`
	Duplicate bool             `json:"duplicate"`
}

// UploadDocument handles file upload, DB insert, and background processing.
// Uploading bytes already known to the system returns the existing document
// with duplicate=true instead of creating a new one.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read file failed", http.StatusBadRequest)
		return
	}

	// Sanitize filename to prevent path traversal or invalid characters
	cleanFilename := filepath.Base(header.Filename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	doc, duplicate, err := h.docs.UploadAndCreate(uploadctx, userID, cleanFilename, contentType, data)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		http.Error(w, "unsupported document format", http.StatusUnsupportedMediaType)
		return
	case errors.Is(err, ingest.ErrInvalidFile):
		http.Error(w, "corrupt or invalid file", http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error("upload failed", "file", cleanFilename, "error", err)
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	if !duplicate {
		h.ingestor.Enqueue(doc.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploadResponse{Document: doc, Duplicate: duplicate})
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	documents, err := h.docs.ListByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(documents)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil || doc.UserID != userID {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
