package ingestion_engine

import "time"

// IngestConfig tunes the ingestion engine.
//
// ChunkSize:        characters per chunk window.
// ChunkOverlap:     characters shared between consecutive windows.
// EmbedBatchSize:   how many chunks go into one embedder call.
// EmbedParallelism: how many embedder calls may run at once for one item.
// Workers:          background workers draining the job queue.
// QueueSize:        bounded job queue capacity; Enqueue blocks when full.
// ItemTimeout:      upper bound for one item's full pipeline run.
type IngestConfig struct {
	ChunkSize        int
	ChunkOverlap     int
	EmbedBatchSize   int
	EmbedParallelism int
	Workers          int
	QueueSize        int
	ItemTimeout      time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *IngestConfig {
	return &IngestConfig{
		ChunkSize:        1000,
		ChunkOverlap:     200,
		EmbedBatchSize:   16,
		EmbedParallelism: 4,
		Workers:          2,
		QueueSize:        64,
		ItemTimeout:      5 * time.Minute,
	}
}

func (c *IngestConfig) withDefaults() *IngestConfig {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.ChunkSize <= 0 {
		out.ChunkSize = d.ChunkSize
	}
	if out.ChunkOverlap < 0 || out.ChunkOverlap >= out.ChunkSize {
		out.ChunkOverlap = d.ChunkOverlap
		if out.ChunkOverlap >= out.ChunkSize {
			out.ChunkOverlap = out.ChunkSize / 5
		}
	}
	if out.EmbedBatchSize <= 0 {
		out.EmbedBatchSize = d.EmbedBatchSize
	}
	if out.EmbedParallelism <= 0 {
		out.EmbedParallelism = d.EmbedParallelism
	}
	if out.Workers <= 0 {
		out.Workers = d.Workers
	}
	if out.QueueSize <= 0 {
		out.QueueSize = d.QueueSize
	}
	if out.ItemTimeout <= 0 {
		out.ItemTimeout = d.ItemTimeout
	}
	return &out
}
