package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	JWTSecret    string

	// EmbedProvider selects the embedding backend: "hash", "gemini" or "openai".
	EmbedProvider    string
	AIAPIKey         string
	EmbedModel       string
	EmbedDim         int
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIEmbedModel string

	ChunkSize        int
	ChunkOverlap     int
	EmbedBatchSize   int
	EmbedParallelism int
	IngestWorkers    int
	IngestQueueSize  int
	BulkWorkers      int

	RetrievalThreshold float64
	RetrievalLimit     int

	TranscriptTimeoutSec int
	AllowedOrigins       string
	Port                 string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "corpus-sources"),
		JWTSecret:    getEnv("JWT_SECRET", ""),

		EmbedProvider:    getEnv("EMBED_PROVIDER", "hash"),
		AIAPIKey:         getEnv("GEMINI_API_KEY", ""),
		EmbedModel:       getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:         getEnvInt("EMBED_DIM", 1536),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		OpenAIEmbedModel: getEnv("OPENAI_EMBED_MODEL", ""),

		ChunkSize:        getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 200),
		EmbedBatchSize:   getEnvInt("EMBED_BATCH_SIZE", 16),
		EmbedParallelism: getEnvInt("EMBED_PARALLELISM", 4),
		IngestWorkers:    getEnvInt("INGEST_WORKERS", 2),
		IngestQueueSize:  getEnvInt("INGEST_QUEUE_SIZE", 64),
		BulkWorkers:      getEnvInt("BULK_WORKERS", 3),

		RetrievalThreshold: getEnvFloat("RETRIEVAL_THRESHOLD", 0.3),
		RetrievalLimit:     getEnvInt("RETRIEVAL_LIMIT", 3),

		TranscriptTimeoutSec: getEnvInt("TRANSCRIPT_TIMEOUT_SEC", 20),
		AllowedOrigins:       getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		Port:                 getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set; falling back to the in-memory store")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a float, using default %g", key, v, def)
		return def
	}
	return f
}
