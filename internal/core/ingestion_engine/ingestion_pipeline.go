package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/core/chunker"
	objectclient "github.com/praeceptor-ai/corpus/internal/core/object-client"
	"github.com/praeceptor-ai/corpus/internal/models"
)

// Engine is the ingestion orchestrator. Each source item runs the strictly
// sequential extract -> chunk -> embed -> persist pipeline; items are
// independent of each other and any number may be in flight at once.
type Engine struct {
	db          core.DbClient
	obj         core.ObjectClient
	embedder    core.EmbeddingProvider
	extractor   core.Extractor
	transcripts core.TranscriptFetcher
	cfg         *IngestConfig
	jobs        chan string
}

var _ Ingestor = (*Engine)(nil)

// NewEngine constructs the engine with a bounded job queue.
func NewEngine(
	db core.DbClient,
	obj core.ObjectClient,
	emb core.EmbeddingProvider,
	extractor core.Extractor,
	transcripts core.TranscriptFetcher,
	cfg *IngestConfig,
) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		db: db, obj: obj, embedder: emb, extractor: extractor, transcripts: transcripts,
		cfg:  cfg,
		jobs: make(chan string, cfg.QueueSize),
	}
}

// Start launches the worker goroutines reading from the job queue. Workers
// exit when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	for w := 1; w <= e.cfg.Workers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("ingestion: worker %d shutting down", w)
					return
				case sourceID := <-e.jobs:
					log.Printf("ingestion: worker %d processing source %s", w, sourceID)
					if err := e.ProcessOne(ctx, sourceID); err != nil {
						log.Printf("ingestion: source %s failed: %v", sourceID, err)
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a source ID for ingestion. If the queue is full this call
// blocks until space frees up.
func (e *Engine) Enqueue(sourceID string) {
	e.jobs <- sourceID
}

// ProcessOne runs the full pipeline for one source item. Every stage failure
// is caught here and normalized into a failed status transition with the
// triggering error's message; no error escapes to asynchronous callers except
// as the returned value for logging. Chunks committed by an earlier
// successful run stay untouched on failure.
func (e *Engine) ProcessOne(ctx context.Context, sourceID string) error {
	procCtx, cancel := context.WithTimeout(ctx, e.cfg.ItemTimeout)
	defer cancel()

	item, err := e.db.GetSourceByID(procCtx, sourceID)
	if err != nil {
		return fmt.Errorf("load source %s: %w", sourceID, err)
	}
	if item == nil {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, sourceID)
	}

	if err := e.db.UpdateSourceStatus(procCtx, sourceID, models.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing %s: %w", sourceID, err)
	}

	text, err := e.loadText(procCtx, item)
	if err != nil {
		return e.fail(ctx, sourceID, err)
	}

	pieces := chunker.Chunk(text, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		return e.fail(ctx, sourceID, fmt.Errorf("%w: nothing left to chunk", core.ErrEmptyContent))
	}

	vecs, err := e.embedAll(procCtx, pieces)
	if err != nil {
		return e.fail(ctx, sourceID, err)
	}

	chunks := make([]models.Chunk, len(pieces))
	for i := range pieces {
		chunks[i] = models.Chunk{
			SourceKind: item.Kind,
			SourceID:   item.ID,
			Index:      i,
			Text:       pieces[i],
			Embedding:  vecs[i],
			Metadata: models.ChunkMetadata{
				Title:       item.Title,
				FileName:    item.FileName,
				TotalChunks: len(pieces),
			},
		}
	}

	if err := e.db.ReplaceChunks(procCtx, item.Kind, item.ID, chunks); err != nil {
		return e.fail(ctx, sourceID, fmt.Errorf("%w: replace chunks: %v", core.ErrPersistenceFailure, err))
	}

	doneCtx, doneCancel := terminalWriteCtx(ctx)
	defer doneCancel()
	if err := e.db.MarkSourceCompleted(doneCtx, sourceID, len(chunks)); err != nil {
		return fmt.Errorf("mark completed %s: %w", sourceID, err)
	}
	log.Printf("ingestion: source %s completed with %d chunks", sourceID, len(chunks))
	return nil
}

// Reprocess resets a source for a fresh run. Stale chunks from the previous
// attempt are removed before the item re-enters the queue so a later failure
// cannot leave a half-old result behind.
func (e *Engine) Reprocess(ctx context.Context, sourceID string) error {
	item, err := e.db.GetSourceByID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source %s: %w", sourceID, err)
	}
	if item == nil {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, sourceID)
	}
	if item.Status == models.StatusProcessing {
		return fmt.Errorf("source %s is still processing", sourceID)
	}

	if err := e.db.DeleteChunks(ctx, item.Kind, item.ID); err != nil {
		return fmt.Errorf("%w: delete chunks for %s: %v", core.ErrPersistenceFailure, sourceID, err)
	}
	if err := e.db.UpdateSourceStatus(ctx, sourceID, models.StatusPending, ""); err != nil {
		return fmt.Errorf("reset %s: %w", sourceID, err)
	}
	e.Enqueue(sourceID)
	return nil
}

// fail records a terminal failed transition with the triggering error's
// message. The cause is often the caller's context expiring, so the write
// runs on a detached context; losing it would strand the item in processing
// with no way to requeue it.
func (e *Engine) fail(ctx context.Context, sourceID string, cause error) error {
	writeCtx, cancel := terminalWriteCtx(ctx)
	defer cancel()
	if err := e.db.UpdateSourceStatus(writeCtx, sourceID, models.StatusFailed, cause.Error()); err != nil {
		log.Printf("ingestion: recording failure for %s also failed: %v", sourceID, err)
	}
	return cause
}

// terminalWriteCtx derives a context for completed/failed status writes that
// survives cancellation of the caller's context but still has a bound of its
// own.
func terminalWriteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
}

// loadText produces the plain-text document for one item. Documents and
// uploaded caption files come out of object storage and go through the
// extractor; video items without an uploaded caption file fall back to the
// platform's transcript track.
func (e *Engine) loadText(ctx context.Context, item *models.SourceItem) (string, error) {
	if item.Kind == models.SourceKindVideo && !isObjectURL(item.Location) {
		return e.transcripts.Fetch(ctx, item.Location)
	}

	bucket, key, err := objectclient.ParseObjectURL(item.Location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	raw, err := e.obj.GetFile(ctx, bucket, key)
	if err != nil {
		return "", err
	}

	contentType := item.ContentType
	if contentType == "" {
		contentType = guessContentType(item.FileName)
	}
	return e.extractor.Extract(ctx, raw, contentType)
}

// isObjectURL reports whether location points at our object storage rather
// than an external video platform.
func isObjectURL(location string) bool {
	return strings.Contains(location, ".amazonaws.com/")
}

// guessContentType maps a file extension onto an extractor hint for uploads
// that carried no MIME type.
func guessContentType(fileName string) string {
	i := strings.LastIndex(fileName, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(fileName[i+1:])
}

// embedAll embeds every chunk, batching EmbedBatchSize texts per call and
// running up to EmbedParallelism calls at once. All batches must finish
// before the caller persists anything, so the store swap stays atomic.
func (e *Engine) embedAll(ctx context.Context, pieces []string) ([][]float32, error) {
	vecs := make([][]float32, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.EmbedParallelism)

	for start := 0; start < len(pieces); start += e.cfg.EmbedBatchSize {
		end := start + e.cfg.EmbedBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		start, end := start, end
		g.Go(func() error {
			batch, err := e.embedder.EmbedTexts(gctx, pieces[start:end])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return fmt.Errorf("%w: embed timed out: %v", core.ErrEmbeddingFailure, err)
				}
				return err
			}
			if len(batch) != end-start {
				return fmt.Errorf("%w: got %d vectors for %d chunks", core.ErrEmbeddingFailure, len(batch), end-start)
			}
			copy(vecs[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}
