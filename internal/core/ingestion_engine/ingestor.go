package ingestion_engine

import "context"

// Ingestor drives source items through the extract -> chunk -> embed -> store
// pipeline and owns every status transition on the way.
type Ingestor interface {
	Start(ctx context.Context)
	Enqueue(sourceID string)
	ProcessOne(ctx context.Context, sourceID string) error
	Reprocess(ctx context.Context, sourceID string) error
}
