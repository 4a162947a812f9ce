package core

import (
	"context"
	"io"

	"github.com/praeceptor-ai/corpus/internal/models"
)

// DbClient defines all persistence operations the pipeline needs.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateSource(ctx context.Context, src *models.SourceItem) error
	GetSourceByID(ctx context.Context, id string) (*models.SourceItem, error)
	ListSources(ctx context.Context) ([]models.SourceItem, error)

	// UpdateSourceStatus writes one status transition. errMsg is stored as-is;
	// pass "" to clear a previous error. The write must be visible to readers
	// immediately, one UPDATE per transition.
	UpdateSourceStatus(ctx context.Context, id string, status string, errMsg string) error

	// MarkSourceCompleted transitions the source to completed, records the
	// authoritative chunk count and clears any prior error message.
	MarkSourceCompleted(ctx context.Context, id string, chunkCount int) error

	// DeleteSource removes the source item and cascades to its chunks and tag links.
	DeleteSource(ctx context.Context, id string) error

	// ReplaceChunks deletes all existing chunks for (kind, id) and inserts the
	// new set in a single transaction; a concurrent reader observes either the
	// old complete set or the new complete set, never a mix.
	ReplaceChunks(ctx context.Context, kind, id string, chunks []models.Chunk) error

	// DeleteChunks removes all chunks for (kind, id). Idempotent; deleting a
	// source with no chunks is a no-op success.
	DeleteChunks(ctx context.Context, kind, id string) error

	// SimilaritySearch returns chunks whose cosine similarity to queryVec meets
	// or exceeds threshold, ordered by descending similarity, truncated to
	// limit. An empty result is not an error.
	SimilaritySearch(ctx context.Context, queryVec []float32, threshold float64, limit int) ([]models.ScoredChunk, error)

	CreateTag(ctx context.Context, tag *models.Tag) error
	ListTags(ctx context.Context) ([]models.Tag, error)
	TagSource(ctx context.Context, sourceID, tagID string) error
	TagsForSource(ctx context.Context, sourceID string) ([]models.Tag, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
