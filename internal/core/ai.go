package core

import "context"

// EmbedDim is the process-wide embedding dimension. Every EmbeddingProvider
// implementation must return vectors of exactly this length.
const EmbedDim = 1536

// EmbeddingProvider maps texts to fixed-dimension, unit-normalized vectors.
// Implementations must be deterministic for identical input; the zero vector
// is permitted only when the input has no usable tokens. Any conformant
// implementation (hashing scheme, Gemini, OpenAI) can be swapped without
// touching the ingestion engine.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
