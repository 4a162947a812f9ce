package models

import (
	"time"
)

// Source kinds.
const (
	SourceKindDocument = "document"
	SourceKindVideo    = "video"
)

// Source item statuses. A source moves pending -> processing -> completed|failed.
// Reprocessing moves failed (or completed) back to pending.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// SourceItem represents one uploaded document or video awaiting or having
// undergone ingestion. Only the ingestion engine mutates Status, ErrorMessage
// and ChunkCount; ChunkCount is authoritative only when Status is "completed".
type SourceItem struct {
	ID           string    `db:"id" json:"id"`
	Kind         string    `db:"kind" json:"kind"` // "document" or "video"
	Title        string    `db:"title" json:"title"`
	FileName     string    `db:"file_name" json:"file_name"`
	Location     string    `db:"location" json:"location"` // S3 URL or external video URL
	ContentType  string    `db:"content_type" json:"content_type"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	ChunkCount   int       `db:"chunk_count" json:"chunk_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ChunkMetadata travels with every chunk so retrieval hits can be attributed
// to their source without a second lookup.
type ChunkMetadata struct {
	Title       string `json:"title"`
	FileName    string `json:"file_name"`
	TotalChunks int    `json:"total_chunks"`
}

// Chunk is one bounded text window derived from a source item, paired with its
// embedding vector. Chunks are immutable once written; reprocessing replaces
// the full set for a source.
type Chunk struct {
	SourceKind string        `db:"source_kind" json:"source_kind"`
	SourceID   string        `db:"source_id" json:"source_id"`
	Index      int           `db:"chunk_index" json:"chunk_index"` // 0-based, contiguous
	Text       string        `db:"text" json:"text"`
	Embedding  []float32     `db:"embedding" json:"-"` // pgvector column
	Metadata   ChunkMetadata `db:"metadata" json:"metadata"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// ScoredChunk is a retrieval hit: a chunk plus its cosine similarity to the query.
type ScoredChunk struct {
	Chunk
	Similarity float64 `json:"similarity"`
}

// Tag is an optional classification applied to sources; orthogonal to
// ingestion state.
type Tag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Bulk report classifications.
const (
	BulkAllSucceeded  = "all"
	BulkPartial       = "partial"
	BulkNoneSucceeded = "none"
)

// BulkFileResult records the outcome for one file of a bulk submission.
type BulkFileResult struct {
	FileName string `json:"file_name"`
	SourceID string `json:"source_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BulkReport is the ephemeral aggregate outcome of a bulk submission. Results
// preserve submission order; Classification is "all", "partial" or "none".
type BulkReport struct {
	Attempted      []string         `json:"attempted"`
	Succeeded      []BulkFileResult `json:"succeeded"`
	Failed         []BulkFileResult `json:"failed"`
	Classification string           `json:"classification"`
}

// Classify partitions results into Succeeded/Failed, preserving submission
// order, and sets the overall Classification.
func (r *BulkReport) Classify(results []BulkFileResult) {
	for _, res := range results {
		r.Attempted = append(r.Attempted, res.FileName)
		if res.Error == "" {
			r.Succeeded = append(r.Succeeded, res)
		} else {
			r.Failed = append(r.Failed, res)
		}
	}
	switch {
	case len(r.Attempted) == 0:
		r.Classification = BulkNoneSucceeded
	case len(r.Failed) == 0:
		r.Classification = BulkAllSucceeded
	case len(r.Succeeded) == 0:
		r.Classification = BulkNoneSucceeded
	default:
		r.Classification = BulkPartial
	}
}
