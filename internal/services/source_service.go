package services

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/core/ingestion_engine"
	objectclient "github.com/praeceptor-ai/corpus/internal/core/object-client"
	"github.com/praeceptor-ai/corpus/internal/models"
)

// SourceService owns the lifecycle of source items: registering uploads and
// video links, reading status, reprocessing and deletion. Ingestion itself
// runs asynchronously on the engine's queue; callers poll Get for the
// terminal status.
type SourceService struct {
	db       core.DbClient
	storage  core.ObjectClient
	ingestor ingestion_engine.Ingestor
	bucket   string
}

func NewSourceService(db core.DbClient, storage core.ObjectClient, ingestor ingestion_engine.Ingestor, bucket string) *SourceService {
	return &SourceService{db: db, storage: storage, ingestor: ingestor, bucket: bucket}
}

// UploadAndCreate stores the raw file, registers a pending source item and
// queues it for ingestion.
func (s *SourceService) UploadAndCreate(ctx context.Context, title, filename, contentType string, data []byte) (*models.SourceItem, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file %q is empty", core.ErrEmptyContent, filename)
	}
	sourceID := uuid.NewString()
	key := s.objectKey(sourceID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = filename
	}
	item := &models.SourceItem{
		ID:          sourceID,
		Kind:        models.SourceKindDocument,
		Title:       title,
		FileName:    filename,
		Location:    url,
		ContentType: contentType,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.db.CreateSource(ctx, item); err != nil {
		return nil, err
	}
	s.ingestor.Enqueue(sourceID)
	return item, nil
}

// CreateVideo registers an external video URL as a pending source and queues
// it; the transcript is fetched during ingestion, not here.
func (s *SourceService) CreateVideo(ctx context.Context, title, videoURL string) (*models.SourceItem, error) {
	if strings.TrimSpace(videoURL) == "" {
		return nil, fmt.Errorf("video URL is required")
	}
	item := &models.SourceItem{
		ID:        uuid.NewString(),
		Kind:      models.SourceKindVideo,
		Title:     title,
		Location:  videoURL,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateSource(ctx, item); err != nil {
		return nil, err
	}
	s.ingestor.Enqueue(item.ID)
	return item, nil
}

func (s *SourceService) Get(ctx context.Context, id string) (*models.SourceItem, error) {
	item, err := s.db.GetSourceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, id)
	}
	return item, nil
}

func (s *SourceService) List(ctx context.Context) ([]models.SourceItem, error) {
	return s.db.ListSources(ctx)
}

// Reprocess resets a failed or completed source for a fresh ingestion run.
func (s *SourceService) Reprocess(ctx context.Context, id string) error {
	return s.ingestor.Reprocess(ctx, id)
}

// Delete removes the source item, its chunks (cascade) and, for uploaded
// files, the stored object. A missing object is not an error; the row is the
// source of truth.
func (s *SourceService) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Kind == models.SourceKindDocument {
		if bucket, key, perr := objectclient.ParseObjectURL(item.Location); perr == nil {
			if derr := s.storage.DeleteFile(ctx, bucket, key); derr != nil {
				return derr
			}
		}
	}
	return s.db.DeleteSource(ctx, id)
}

func (s *SourceService) CreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("tag name is required")
	}
	tag := &models.Tag{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Color:     color,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *SourceService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.db.ListTags(ctx)
}

func (s *SourceService) TagSource(ctx context.Context, sourceID string, tagIDs []string) error {
	if _, err := s.Get(ctx, sourceID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if err := s.db.TagSource(ctx, sourceID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SourceService) TagsForSource(ctx context.Context, sourceID string) ([]models.Tag, error) {
	return s.db.TagsForSource(ctx, sourceID)
}

// objectKey creates a consistent S3 key layout.
func (s *SourceService) objectKey(sourceID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("sources", sourceID, filename)
}
