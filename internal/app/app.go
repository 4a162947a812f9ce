package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/praeceptor-ai/corpus/internal/config"
	"github.com/praeceptor-ai/corpus/internal/core"
	db "github.com/praeceptor-ai/corpus/internal/core/database"
	"github.com/praeceptor-ai/corpus/internal/core/extract"
	"github.com/praeceptor-ai/corpus/internal/core/ingestion_engine"
	"github.com/praeceptor-ai/corpus/internal/core/llm"
	objectclient "github.com/praeceptor-ai/corpus/internal/core/object-client"
	"github.com/praeceptor-ai/corpus/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Ingestor     ingestion_engine.Ingestor
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := newStore(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Store initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	embedder, err := newEmbedder(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	extractor := extract.NewDocumentExtractor()
	transcripts := extract.NewYouTubeTranscriptFetcher(time.Duration(cfg.TranscriptTimeoutSec) * time.Second)

	ingCfg := &ingestion_engine.IngestConfig{
		ChunkSize:        cfg.ChunkSize,
		ChunkOverlap:     cfg.ChunkOverlap,
		EmbedBatchSize:   cfg.EmbedBatchSize,
		EmbedParallelism: cfg.EmbedParallelism,
		Workers:          cfg.IngestWorkers,
		QueueSize:        cfg.IngestQueueSize,
	}
	engine := ingestion_engine.NewEngine(dbClient, objClient, embedder, extractor, transcripts, ingCfg)
	engine.Start(ctx)

	bulk := ingestion_engine.NewBulkCoordinator(engine, dbClient, objClient, cfg.BucketName, cfg.BulkWorkers)

	sourceSvc := services.NewSourceService(dbClient, objClient, engine, cfg.BucketName)
	retrievalSvc := services.NewRetrievalService(dbClient, embedder, cfg.RetrievalThreshold, cfg.RetrievalLimit)

	server := NewServer(cfg, sourceSvc, retrievalSvc, bulk)

	return &App{DBClient: dbClient, ObjectClient: objClient, Ingestor: engine, Server: server}, nil
}

// newStore picks Postgres when a DSN is configured and the in-memory store
// otherwise, so the service runs locally without any infrastructure.
func newStore(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg.DatabaseURL == "" {
		return db.NewMemStore(), nil
	}
	return db.NewDatabaseClient(ctx, cfg)
}

func newEmbedder(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, error) {
	switch cfg.EmbedProvider {
	case "gemini":
		return llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
	case "openai":
		return llm.NewOpenAIEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel, cfg.EmbedDim), nil
	case "hash", "":
		return llm.NewHashEmbedder(cfg.EmbedDim), nil
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
