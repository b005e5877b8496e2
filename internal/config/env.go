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
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	GenModel     string
	Port         string

	// Chunking defaults; a per-document snapshot taken at ingestion time
	// may override these from the app_settings table.
	ChunkSizeTokens    int
	ChunkOverlapTokens int
	PreserveStructure  bool
	MaxChunksPerFile   int
	MaxTextLength      int

	IngestWorkers     int
	EmbedBatchSize    int
	EmbedBatchDelayMs int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "textura-docs"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 1536),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		Port:         getEnv("PORT", "8080"),

		ChunkSizeTokens:    getEnvInt("CHUNK_SIZE_TOKENS", 1000),
		ChunkOverlapTokens: getEnvInt("CHUNK_OVERLAP_TOKENS", 200),
		PreserveStructure:  getEnvBool("PRESERVE_STRUCTURE", true),
		MaxChunksPerFile:   getEnvInt("MAX_CHUNKS_PER_FILE", 50),
		MaxTextLength:      getEnvInt("MAX_TEXT_LENGTH", 2_000_000),

		IngestWorkers:     getEnvInt("INGEST_WORKERS", 2),
		EmbedBatchSize:    getEnvInt("EMBED_BATCH_SIZE", 10),
		EmbedBatchDelayMs: getEnvInt("EMBED_BATCH_DELAY_MS", 200),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
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

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
