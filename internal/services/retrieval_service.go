package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/models"
)

const (
	// DefaultRetrievalThreshold filters out chunks below this cosine similarity.
	DefaultRetrievalThreshold = 0.3
	// DefaultRetrievalLimit caps the number of returned chunks.
	DefaultRetrievalLimit = 3
)

// RetrievalService answers similarity queries over the ingested chunks. The
// query goes through the same embedder the chunks went through, so the two
// vector spaces line up.
type RetrievalService struct {
	db        core.DbClient
	embedder  core.EmbeddingProvider
	threshold float64
	limit     int
}

// NewRetrievalService wires the store and embedder with the configured
// fallback threshold and limit; non-positive values take the package defaults.
func NewRetrievalService(db core.DbClient, embedder core.EmbeddingProvider, threshold float64, limit int) *RetrievalService {
	if threshold <= 0 {
		threshold = DefaultRetrievalThreshold
	}
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}
	return &RetrievalService{db: db, embedder: embedder, threshold: threshold, limit: limit}
}

// Retrieve embeds the query and returns the most similar chunks, best first.
// threshold <= 0 and limit <= 0 fall back to the service's configured
// defaults. An empty result is a normal outcome, not an error.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, threshold float64, limit int) ([]models.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if threshold <= 0 {
		threshold = s.threshold
	}
	if limit <= 0 {
		limit = s.limit
	}

	vecs, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", core.ErrEmbeddingFailure, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", core.ErrEmbeddingFailure, len(vecs))
	}

	return s.db.SimilaritySearch(ctx, vecs[0], threshold, limit)
}
