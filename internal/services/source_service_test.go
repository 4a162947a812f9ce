package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praeceptor-ai/corpus/internal/core"
	db "github.com/praeceptor-ai/corpus/internal/core/database"
	"github.com/praeceptor-ai/corpus/internal/models"
)

type stubStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[bucket+"/"+key] = raw
	s.mu.Unlock()
	return fmt.Sprintf("https://%s.s3.us-east-1.amazonaws.com/%s", bucket, key), nil
}

func (s *stubStorage) DeleteFile(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	delete(s.objects, bucket+"/"+key)
	s.mu.Unlock()
	return nil
}

func (s *stubStorage) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", core.ErrStorageUnavailable, bucket, key)
	}
	return raw, nil
}

func (s *stubStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// stubIngestor records scheduling calls instead of running the pipeline.
type stubIngestor struct {
	mu          sync.Mutex
	enqueued    []string
	reprocessed []string
}

func (s *stubIngestor) Start(ctx context.Context) {}

func (s *stubIngestor) Enqueue(sourceID string) {
	s.mu.Lock()
	s.enqueued = append(s.enqueued, sourceID)
	s.mu.Unlock()
}

func (s *stubIngestor) ProcessOne(ctx context.Context, sourceID string) error { return nil }

func (s *stubIngestor) Reprocess(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	s.reprocessed = append(s.reprocessed, sourceID)
	s.mu.Unlock()
	return nil
}

func newSourceServiceRig() (*SourceService, *db.MemStore, *stubStorage, *stubIngestor) {
	store := db.NewMemStore()
	storage := newStubStorage()
	ing := &stubIngestor{}
	return NewSourceService(store, storage, ing, "corpus-test"), store, storage, ing
}

func TestUploadAndCreateQueuesPendingSource(t *testing.T) {
	svc, store, storage, ing := newSourceServiceRig()

	item, err := svc.UploadAndCreate(context.Background(), "Lecture Notes", "notes week 1.txt", "text/plain", []byte("some text"))
	require.NoError(t, err)

	assert.Equal(t, models.SourceKindDocument, item.Kind)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, "Lecture Notes", item.Title)
	assert.Contains(t, item.Location, "notes_week_1.txt", "spaces in file names get normalized in the object key")
	assert.Equal(t, 1, storage.count())

	stored, err := store.GetSourceByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusPending, stored.Status)

	require.Len(t, ing.enqueued, 1)
	assert.Equal(t, item.ID, ing.enqueued[0])
}

func TestUploadAndCreateRejectsEmptyFile(t *testing.T) {
	svc, _, storage, ing := newSourceServiceRig()

	_, err := svc.UploadAndCreate(context.Background(), "", "empty.txt", "text/plain", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyContent)
	assert.Zero(t, storage.count(), "nothing should be uploaded for a rejected file")
	assert.Empty(t, ing.enqueued)
}

func TestCreateVideoQueuesTranscriptSource(t *testing.T) {
	svc, store, _, ing := newSourceServiceRig()

	item, err := svc.CreateVideo(context.Background(), "Intro", "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, models.SourceKindVideo, item.Kind)
	assert.Equal(t, models.StatusPending, item.Status)

	stored, err := store.GetSourceByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, ing.enqueued, 1)
}

func TestGetUnknownSource(t *testing.T) {
	svc, _, _, _ := newSourceServiceRig()
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}

func TestDeleteRemovesObjectAndRow(t *testing.T) {
	svc, store, storage, _ := newSourceServiceRig()

	item, err := svc.UploadAndCreate(context.Background(), "", "gone.txt", "text/plain", []byte("bye"))
	require.NoError(t, err)
	require.Equal(t, 1, storage.count())

	require.NoError(t, svc.Delete(context.Background(), item.ID))
	assert.Zero(t, storage.count())

	stored, err := store.GetSourceByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteVideoSkipsObjectStorage(t *testing.T) {
	svc, _, storage, _ := newSourceServiceRig()

	item, err := svc.CreateVideo(context.Background(), "v", "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), item.ID))
	assert.Zero(t, storage.count())
}

func TestTagLifecycle(t *testing.T) {
	svc, _, _, _ := newSourceServiceRig()
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, "  physics ", "#00ff00")
	require.NoError(t, err)
	assert.Equal(t, "physics", tag.Name)

	_, err = svc.CreateTag(ctx, "   ", "")
	require.Error(t, err)

	item, err := svc.UploadAndCreate(ctx, "", "mechanics.txt", "text/plain", []byte("newton"))
	require.NoError(t, err)
	require.NoError(t, svc.TagSource(ctx, item.ID, []string{tag.ID}))

	got, err := svc.TagsForSource(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "physics", got[0].Name)

	all, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = svc.TagSource(ctx, "missing", []string{tag.ID})
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}
