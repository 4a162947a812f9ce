package db

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/models"
)

// MemStore is an in-memory core.DbClient used by tests and DB-less local
// runs. Chunk sets are swapped as whole slices under one lock, so readers get
// the same all-old-or-all-new guarantee the Postgres transaction provides.
type MemStore struct {
	mu      sync.RWMutex
	sources map[string]*models.SourceItem
	chunks  map[string][]models.Chunk // keyed by kind/id
	tags    map[string]*models.Tag
	srcTags map[string]map[string]struct{}
}

var _ core.DbClient = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		sources: make(map[string]*models.SourceItem),
		chunks:  make(map[string][]models.Chunk),
		tags:    make(map[string]*models.Tag),
		srcTags: make(map[string]map[string]struct{}),
	}
}

func chunkKey(kind, id string) string {
	return kind + "/" + id
}

func (m *MemStore) Close() error { return nil }

func (m *MemStore) CreateSource(ctx context.Context, src *models.SourceItem) error {
	if src == nil {
		return fmt.Errorf("nil source item")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[src.ID]; ok {
		return fmt.Errorf("source already exists: %s", src.ID)
	}
	cp := *src
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	m.sources[src.ID] = &cp
	return nil
}

func (m *MemStore) GetSourceByID(ctx context.Context, id string) (*models.SourceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[id]
	if !ok {
		return nil, nil
	}
	cp := *src
	return &cp, nil
}

func (m *MemStore) ListSources(ctx context.Context) ([]models.SourceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.SourceItem, 0, len(m.sources))
	for _, src := range m.sources {
		out = append(out, *src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateSourceStatus(ctx context.Context, id string, status string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, id)
	}
	src.Status = status
	src.ErrorMessage = errMsg
	src.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) MarkSourceCompleted(ctx context.Context, id string, chunkCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, id)
	}
	src.Status = models.StatusCompleted
	src.ChunkCount = chunkCount
	src.ErrorMessage = ""
	src.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) DeleteSource(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return nil
	}
	delete(m.sources, id)
	delete(m.chunks, chunkKey(src.Kind, id))
	delete(m.srcTags, id)
	return nil
}

func (m *MemStore) ReplaceChunks(ctx context.Context, kind, id string, chunks []models.Chunk) error {
	cp := make([]models.Chunk, len(chunks))
	copy(cp, chunks)
	now := time.Now()
	for i := range cp {
		if cp[i].CreatedAt.IsZero() {
			cp[i].CreatedAt = now
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[chunkKey(kind, id)] = cp
	return nil
}

// ChunksFor returns a copy of the stored chunk set for one source, ordered
// as persisted.
func (m *MemStore) ChunksFor(kind, id string) []models.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.chunks[chunkKey(kind, id)]
	out := make([]models.Chunk, len(set))
	copy(out, set)
	return out
}

func (m *MemStore) DeleteChunks(ctx context.Context, kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, chunkKey(kind, id))
	return nil
}

func (m *MemStore) SimilaritySearch(ctx context.Context, queryVec []float32, threshold float64, limit int) ([]models.ScoredChunk, error) {
	m.mu.RLock()
	var scored []models.ScoredChunk
	for _, set := range m.chunks {
		for _, ch := range set {
			sim := cosineSimilarity(queryVec, ch.Embedding)
			if sim >= threshold {
				scored = append(scored, models.ScoredChunk{Chunk: ch, Similarity: sim})
			}
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	if scored == nil {
		scored = []models.ScoredChunk{}
	}
	return scored, nil
}

func (m *MemStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	if tag == nil {
		return fmt.Errorf("nil tag")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tag
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.tags[tag.ID] = &cp
	return nil
}

func (m *MemStore) ListTags(ctx context.Context) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (m *MemStore) TagSource(ctx context.Context, sourceID, tagID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[sourceID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, sourceID)
	}
	if _, ok := m.srcTags[sourceID]; !ok {
		m.srcTags[sourceID] = make(map[string]struct{})
	}
	m.srcTags[sourceID][tagID] = struct{}{}
	return nil
}

func (m *MemStore) TagsForSource(ctx context.Context, sourceID string) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Tag, 0, len(m.srcTags[sourceID]))
	for tagID := range m.srcTags[sourceID] {
		if t, ok := m.tags[tagID]; ok {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// cosineSimilarity assumes nothing about normalization; it divides by the
// norms so callers can mix unit and non-unit vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
