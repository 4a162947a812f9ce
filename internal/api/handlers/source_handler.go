package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/core/ingestion_engine"
	"github.com/praeceptor-ai/corpus/internal/models"
	"github.com/praeceptor-ai/corpus/internal/services"
)

const maxUploadBytes = 52 << 20

type SourceHandler struct {
	sources *services.SourceService
	bulk    *ingestion_engine.BulkCoordinator
}

func NewSourceHandler(sources *services.SourceService, bulk *ingestion_engine.BulkCoordinator) *SourceHandler {
	return &SourceHandler{sources: sources, bulk: bulk}
}

// UploadSource handles a single multipart file upload. The response is the
// pending source item; ingestion continues in the background.
func (h *SourceHandler) UploadSource(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
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
		http.Error(w, fmt.Sprintf("reading upload: %v", err), http.StatusBadRequest)
		return
	}

	// Drop any path components the client sent along.
	cleanName := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	item, err := h.sources.UploadAndCreate(r.Context(), r.FormValue("title"), cleanName, contentType, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, item)
}

// SubmitVideo registers an external video URL whose transcript will be
// ingested in the background.
func (h *SourceHandler) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	item, err := h.sources.CreateVideo(r.Context(), req.Title, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, item)
}

// BulkUpload runs a multi-file submission to completion and returns the
// aggregate report. Files are isolated: one bad file never sinks the batch.
func (h *SourceHandler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files in request", http.StatusBadRequest)
		return
	}

	sources := make([]ingestion_engine.BulkSource, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("opening %s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("reading %s: %v", header.Filename, err), http.StatusBadRequest)
			return
		}
		sources = append(sources, ingestion_engine.BulkSource{
			FileName:    filepath.Base(header.Filename),
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	var tagIDs []string
	if raw := strings.TrimSpace(r.FormValue("tags")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				tagIDs = append(tagIDs, id)
			}
		}
	}

	progress := func(done, succeeded, failed int, current string) {
		log.Printf("bulk: %d/%d done (%d ok, %d failed), finished %s", done, len(sources), succeeded, failed, current)
	}

	report, err := h.bulk.SubmitBulk(r.Context(), sources, tagIDs, progress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *SourceHandler) GetSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := h.sources.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	tags, err := h.sources.TagsForSource(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*models.SourceItem
		Tags []models.Tag `json:"tags"`
	}{item, tags})
}

func (h *SourceHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	items, err := h.sources.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SourceHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := h.sources.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SourceHandler) ReprocessSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sources.Reprocess(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": models.StatusPending})
}

func (h *SourceHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	tag, err := h.sources.CreateTag(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (h *SourceHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.sources.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *SourceHandler) TagSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.sources.TagSource(r.Context(), chi.URLParam(r, "id"), req.TagIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// writeError maps the pipeline error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrSourceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrUnsupportedFormat), errors.Is(err, core.ErrEmptyContent):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrStorageUnavailable), errors.Is(err, core.ErrPersistenceFailure), errors.Is(err, core.ErrEmbeddingFailure):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
