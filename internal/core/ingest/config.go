// Package ingest is the document ingestion engine: content hashing,
// token-budgeted adaptive chunking, safety limits and the pipeline that ties
// them to the extractors.
package ingest

// ChunkingConfig tunes the adaptive chunker. It is supplied by the caller
// (a settings snapshot fetched per document) and never mutated here.
//
// ChunkSizeTokens:   approximate token budget per chunk.
// OverlapTokens:     tokens of trailing context carried into the next chunk.
// PreserveStructure: snap boundaries to paragraph/sentence edges instead of
//                    raw word windows.
type ChunkingConfig struct {
	ChunkSizeTokens   int
	OverlapTokens     int
	PreserveStructure bool
}

const (
	minChunkSizeTokens = 100
	maxChunkSizeTokens = 8000
	maxOverlapTokens   = 1000
)

// DefaultChunkingConfig returns the stock tuning.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSizeTokens:   1000,
		OverlapTokens:     200,
		PreserveStructure: true,
	}
}

// sanitized clamps the config into its documented ranges and restores the
// overlap < size invariant. Out-of-range values come from the settings
// store, so clamping beats failing the whole document.
func (c ChunkingConfig) sanitized() ChunkingConfig {
	if c.ChunkSizeTokens < minChunkSizeTokens {
		c.ChunkSizeTokens = minChunkSizeTokens
	}
	if c.ChunkSizeTokens > maxChunkSizeTokens {
		c.ChunkSizeTokens = maxChunkSizeTokens
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 0
	}
	if c.OverlapTokens > maxOverlapTokens {
		c.OverlapTokens = maxOverlapTokens
	}
	if c.OverlapTokens >= c.ChunkSizeTokens {
		c.OverlapTokens = c.ChunkSizeTokens / 4
	}
	return c
}
