package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/praeceptor-ai/corpus/internal/core/database"
	"github.com/praeceptor-ai/corpus/internal/core/llm"
	"github.com/praeceptor-ai/corpus/internal/models"
)

func seedChunks(t *testing.T, store *db.MemStore, emb *llm.HashEmbedder, sourceID string, texts []string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateSource(ctx, &models.SourceItem{
		ID:     sourceID,
		Kind:   models.SourceKindDocument,
		Title:  sourceID,
		Status: models.StatusCompleted,
	}))

	vecs, err := emb.EmbedTexts(ctx, texts)
	require.NoError(t, err)

	chunks := make([]models.Chunk, len(texts))
	for i := range texts {
		chunks[i] = models.Chunk{
			SourceKind: models.SourceKindDocument,
			SourceID:   sourceID,
			Index:      i,
			Text:       texts[i],
			Embedding:  vecs[i],
		}
	}
	require.NoError(t, store.ReplaceChunks(ctx, models.SourceKindDocument, sourceID, chunks))
}

func TestRetrieveRanksByRelevance(t *testing.T) {
	store := db.NewMemStore()
	emb := llm.NewHashEmbedder(64)
	seedChunks(t, store, emb, "src-1", []string{
		"solving linear equations with one variable",
		"the french revolution and its aftermath",
		"photosynthesis converts light into chemical energy",
	})

	svc := NewRetrievalService(store, emb, 0, 0)
	hits, err := svc.Retrieve(context.Background(), "solving linear equations with one variable", 0.2, 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Contains(t, hits[0].Text, "linear equations")
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6, "identical text should score a perfect match")
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity, "hits must come back best first")
	}
}

func TestRetrieveAppliesLimit(t *testing.T) {
	store := db.NewMemStore()
	emb := llm.NewHashEmbedder(64)
	seedChunks(t, store, emb, "src-1", []string{
		"algebra lesson one",
		"algebra lesson two",
		"algebra lesson three",
		"algebra lesson four",
	})

	svc := NewRetrievalService(store, emb, 0, 0)
	hits, err := svc.Retrieve(context.Background(), "algebra lesson", 0.1, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	store := db.NewMemStore()
	emb := llm.NewHashEmbedder(64)
	seedChunks(t, store, emb, "src-1", []string{
		"the french revolution and its aftermath",
	})

	svc := NewRetrievalService(store, emb, 0, 0)
	hits, err := svc.Retrieve(context.Background(), "quantum chromodynamics lattice gauge", 0.99, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NotNil(t, hits, "an empty result set should still be a usable slice")
}

func TestRetrieveUsesConfiguredDefaults(t *testing.T) {
	store := db.NewMemStore()
	emb := llm.NewHashEmbedder(64)
	seedChunks(t, store, emb, "src-1", []string{
		"algebra lesson one",
		"algebra lesson two",
		"algebra lesson three",
	})

	// Configured limit of 1 must apply when the caller passes zero values.
	svc := NewRetrievalService(store, emb, 0.1, 1)
	hits, err := svc.Retrieve(context.Background(), "algebra lesson", 0, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	// A configured threshold above every score filters everything out.
	strict := NewRetrievalService(store, emb, 0.999, 3)
	hits, err = strict.Retrieve(context.Background(), "completely different topic entirely", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieveDefaultsAndValidation(t *testing.T) {
	store := db.NewMemStore()
	emb := llm.NewHashEmbedder(64)
	svc := NewRetrievalService(store, emb, 0, 0)

	_, err := svc.Retrieve(context.Background(), "   ", 0, 0)
	require.Error(t, err)

	hits, err := svc.Retrieve(context.Background(), "anything", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "empty store should retrieve nothing")
}
