package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/praeceptor-ai/corpus/internal/models"
	"github.com/praeceptor-ai/corpus/internal/services"
)

type RetrievalHandler struct {
	retrieval *services.RetrievalService
}

func NewRetrievalHandler(retrieval *services.RetrievalService) *RetrievalHandler {
	return &RetrievalHandler{retrieval: retrieval}
}

// Retrieve answers a similarity query with the best-matching chunks. Zero
// threshold or limit means "use the server defaults"; an empty result list is
// a 200, not an error.
func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string  `json:"query"`
		Threshold float64 `json:"threshold"`
		Limit     int     `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	hits, err := h.retrieval.Retrieve(r.Context(), req.Query, req.Threshold, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Query   string               `json:"query"`
		Results []models.ScoredChunk `json:"results"`
	}{req.Query, hits})
}
