package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1000, cfg.ChunkSizeTokens)
	assert.Equal(t, 200, cfg.ChunkOverlapTokens)
	assert.True(t, cfg.PreserveStructure)
	assert.Equal(t, 50, cfg.MaxChunksPerFile)
	assert.Equal(t, 2_000_000, cfg.MaxTextLength)
	assert.Equal(t, 10, cfg.EmbedBatchSize)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("CHUNK_SIZE_TOKENS", "500")
	t.Setenv("PRESERVE_STRUCTURE", "false")
	t.Setenv("MAX_CHUNKS_PER_FILE", "25")

	cfg := LoadConfig()
	assert.Equal(t, 500, cfg.ChunkSizeTokens)
	assert.False(t, cfg.PreserveStructure)
	assert.Equal(t, 25, cfg.MaxChunksPerFile)
}

func TestGetEnvIntBadValue(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 42, getEnvInt("SOME_INT", 42))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("SOME_BOOL", "true")
	assert.True(t, getEnvBool("SOME_BOOL", false))

	t.Setenv("SOME_BOOL", "nope")
	assert.False(t, getEnvBool("SOME_BOOL", false))
}
