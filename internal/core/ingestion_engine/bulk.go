package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/models"
)

// BulkSource is one file of a bulk submission.
type BulkSource struct {
	FileName    string
	Title       string
	ContentType string
	Kind        string // defaults to "document"
	Data        []byte
}

// ProgressFunc receives running counts after each item finishes, plus the
// name of the item that just completed, so a caller can render live progress.
type ProgressFunc func(done, succeeded, failed int, current string)

// BulkCoordinator sequences many independent ingestion jobs through the
// engine with bounded concurrency. A failure on one item never prevents the
// remaining items from being attempted.
type BulkCoordinator struct {
	engine  *Engine
	db      core.DbClient
	obj     core.ObjectClient
	bucket  string
	workers int
}

func NewBulkCoordinator(engine *Engine, db core.DbClient, obj core.ObjectClient, bucket string, workers int) *BulkCoordinator {
	if workers < 1 {
		workers = 1
	}
	return &BulkCoordinator{engine: engine, db: db, obj: obj, bucket: bucket, workers: workers}
}

// SubmitBulk processes every source and returns the aggregate report. Items
// run on an ants worker pool; per-item errors and panics are recorded in the
// report rather than propagated, and submission order is preserved in the
// results regardless of completion order.
func (c *BulkCoordinator) SubmitBulk(ctx context.Context, sources []BulkSource, tagIDs []string, progress ProgressFunc) (*models.BulkReport, error) {
	results := make([]models.BulkFileResult, len(sources))

	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return nil, fmt.Errorf("bulk worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)

	finish := func(i int, res models.BulkFileResult) {
		mu.Lock()
		results[i] = res
		if res.Error == "" {
			succeeded++
		} else {
			failed++
		}
		done := succeeded + failed
		s, f := succeeded, failed
		mu.Unlock()
		if progress != nil {
			progress(done, s, f, res.FileName)
		}
	}

	for i := range sources {
		i := i
		src := sources[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("bulk: panic while processing %s: %v", src.FileName, r)
					finish(i, models.BulkFileResult{FileName: src.FileName, Error: fmt.Sprintf("internal error: %v", r)})
				}
			}()
			finish(i, c.processOne(ctx, src, tagIDs))
		})
		if submitErr != nil {
			wg.Done()
			finish(i, models.BulkFileResult{FileName: src.FileName, Error: fmt.Sprintf("submit: %v", submitErr)})
		}
	}

	wg.Wait()

	report := &models.BulkReport{}
	report.Classify(results)
	return report, nil
}

// processOne uploads one file, creates its source item and runs ingestion to
// a terminal state. The returned result carries the failure reason, if any.
func (c *BulkCoordinator) processOne(ctx context.Context, src BulkSource, tagIDs []string) models.BulkFileResult {
	res := models.BulkFileResult{FileName: src.FileName}

	kind := src.Kind
	if kind == "" {
		kind = models.SourceKindDocument
	}
	title := src.Title
	if title == "" {
		title = src.FileName
	}

	sourceID := uuid.NewString()
	cleanName := filepath.Base(src.FileName)
	key := fmt.Sprintf("sources/%s/%s", sourceID, cleanName)

	url, err := c.obj.UploadFile(ctx, c.bucket, key, bytes.NewReader(src.Data), src.ContentType)
	if err != nil {
		res.Error = fmt.Sprintf("upload: %v", err)
		return res
	}

	item := &models.SourceItem{
		ID:          sourceID,
		Kind:        kind,
		Title:       title,
		FileName:    cleanName,
		Location:    url,
		ContentType: src.ContentType,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	if err := c.db.CreateSource(ctx, item); err != nil {
		res.Error = fmt.Sprintf("create source: %v", err)
		return res
	}
	res.SourceID = sourceID

	for _, tagID := range tagIDs {
		if err := c.db.TagSource(ctx, sourceID, tagID); err != nil {
			log.Printf("bulk: tagging %s with %s failed: %v", sourceID, tagID, err)
		}
	}

	if err := c.engine.ProcessOne(ctx, sourceID); err != nil {
		res.Error = err.Error()
		return res
	}
	return res
}
