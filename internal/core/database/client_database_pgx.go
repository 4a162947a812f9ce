package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/praeceptor-ai/corpus/internal/config"
	"github.com/praeceptor-ai/corpus/internal/core"
	"github.com/praeceptor-ai/corpus/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	// The bootstrap schema declares vector(EmbedDim) columns; a mismatched
	// embedder would fail much later with an opaque insert error.
	if cfg.EmbedDim != core.EmbedDim {
		return nil, fmt.Errorf("EMBED_DIM=%d is unsupported with the Postgres store; the schema uses vector(%d)", cfg.EmbedDim, core.EmbedDim)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Source items

func (c *DatabaseClient) CreateSource(ctx context.Context, src *models.SourceItem) error {
	if src == nil {
		return errors.New("nil source item")
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO source_items
			(id, kind, title, file_name, location, content_type, status, error_message, chunk_count, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, now())
	`
	_, err := c.db.ExecContext(ctx, q,
		src.ID, src.Kind, src.Title, src.FileName, src.Location, src.ContentType, src.Status, src.ErrorMessage, src.ChunkCount, src.CreatedAt)
	return err
}

func (c *DatabaseClient) GetSourceByID(ctx context.Context, id string) (*models.SourceItem, error) {
	const q = `
		SELECT id, kind, title, file_name, location, content_type, status, COALESCE(error_message, ''), chunk_count, created_at, updated_at
		FROM source_items
		WHERE id = $1
	`
	var s models.SourceItem
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Kind, &s.Title, &s.FileName, &s.Location, &s.ContentType, &s.Status, &s.ErrorMessage, &s.ChunkCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *DatabaseClient) ListSources(ctx context.Context) ([]models.SourceItem, error) {
	const q = `
		SELECT id, kind, title, file_name, location, content_type, status, COALESCE(error_message, ''), chunk_count, created_at, updated_at
		FROM source_items
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SourceItem
	for rows.Next() {
		var s models.SourceItem
		if err := rows.Scan(
			&s.ID, &s.Kind, &s.Title, &s.FileName, &s.Location, &s.ContentType, &s.Status, &s.ErrorMessage, &s.ChunkCount, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateSourceStatus(ctx context.Context, id string, status string, errMsg string) error {
	const q = `
		UPDATE source_items
		SET status = $2, error_message = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, status, errMsg)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, id)
	}
	return nil
}

func (c *DatabaseClient) MarkSourceCompleted(ctx context.Context, id string, chunkCount int) error {
	const q = `
		UPDATE source_items
		SET status = 'completed', chunk_count = $2, error_message = NULL, updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q, id, chunkCount)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSourceNotFound, id)
	}
	return nil
}

// DeleteSource removes the item; chunks and tag links cascade at the schema level.
func (c *DatabaseClient) DeleteSource(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM source_items WHERE id = $1`, id)
	return err
}

// Chunks

// ReplaceChunks swaps the full chunk set for a source in one transaction so a
// concurrent similarity search sees either the old set or the new set.
func (c *DatabaseClient) ReplaceChunks(ctx context.Context, kind, id string, chunks []models.Chunk) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM source_chunks WHERE source_kind = $1 AND source_id = $2`, kind, id); err != nil {
		_ = tx.Rollback()
		return err
	}

	const q = `
		INSERT INTO source_chunks
			(source_kind, source_id, chunk_index, text, embedding, title, file_name, total_chunks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx,
			kind, id, ch.Index, ch.Text, vec, ch.Metadata.Title, ch.Metadata.FileName, ch.Metadata.TotalChunks,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) DeleteChunks(ctx context.Context, kind, id string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM source_chunks WHERE source_kind = $1 AND source_id = $2`, kind, id)
	return err
}

// SimilaritySearch ranks chunks by cosine similarity. pgvector's <=> operator
// is cosine distance, so similarity = 1 - distance.
func (c *DatabaseClient) SimilaritySearch(ctx context.Context, queryVec []float32, threshold float64, limit int) ([]models.ScoredChunk, error) {
	const q = `
		SELECT source_kind, source_id, chunk_index, text, embedding, title, file_name, total_chunks, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM source_chunks
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, vec, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ScoredChunk{}
	for rows.Next() {
		var (
			sc  models.ScoredChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(
			&sc.Chunk.SourceKind, &sc.Chunk.SourceID, &sc.Chunk.Index, &sc.Chunk.Text, &emb,
			&sc.Chunk.Metadata.Title, &sc.Chunk.Metadata.FileName, &sc.Chunk.Metadata.TotalChunks,
			&sc.Chunk.CreatedAt, &sc.Similarity,
		); err != nil {
			return nil, err
		}
		sc.Chunk.Embedding = emb.Slice()
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Tags

func (c *DatabaseClient) CreateTag(ctx context.Context, tag *models.Tag) error {
	if tag == nil {
		return errors.New("nil tag")
	}
	const q = `
		INSERT INTO tags (id, name, color, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE SET color = EXCLUDED.color
	`
	_, err := c.db.ExecContext(ctx, q, tag.ID, tag.Name, tag.Color)
	return err
}

func (c *DatabaseClient) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) TagSource(ctx context.Context, sourceID, tagID string) error {
	const q = `
		INSERT INTO source_tags (source_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := c.db.ExecContext(ctx, q, sourceID, tagID)
	return err
}

func (c *DatabaseClient) TagsForSource(ctx context.Context, sourceID string) ([]models.Tag, error) {
	const q = `
		SELECT t.id, t.name, t.color, t.created_at
		FROM tags t
		JOIN source_tags st ON st.tag_id = t.id
		WHERE st.source_id = $1
		ORDER BY t.name
	`
	rows, err := c.db.QueryContext(ctx, q, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
