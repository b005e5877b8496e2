package ingest

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/avoronov/textura/internal/core/extract"
)

// RawDocument is the immutable pipeline input: raw bytes, the original
// filename and whatever MIME type the uploader declared.
type RawDocument struct {
	Filename     string
	DeclaredMIME string
	Data         []byte
}

// Metadata describes how a document was processed.
type Metadata struct {
	Format    extract.Format
	Processor string
	Title     string
	Author    string
	Pages     int
}

// ProcessedDocument is the terminal artifact handed to the embedding and
// vector-store collaborators.
type ProcessedDocument struct {
	Text      string
	Chunks    []Chunk
	Hash      string
	Metadata  Metadata
	Truncated bool
	Warnings  []string
}

// Result is either a processed document or a duplicate short-circuit,
// never both.
type Result struct {
	Document  *ProcessedDocument
	Duplicate *DuplicateRef
}

// DedupIndex is the external store consulted by content hash before
// chunking. Concurrent ingestion of identical bytes is a check-then-act
// race here; at-most-once semantics, if required, come from the
// collaborator's own uniqueness guarantee (a UNIQUE index on the hash), not
// from the pipeline.
type DedupIndex interface {
	FindByHash(ctx context.Context, hash string) (documentID string, found bool, err error)
}

// Pipeline runs one document through
// detect → validate → extract → hash → dedup → truncate → chunk → cap.
// A single run is synchronous and CPU-bound; callers process many documents
// concurrently, each run sharing no mutable state with any other.
type Pipeline struct {
	registry *extract.Registry
	chunker  *AdaptiveChunker
	guard    *SafetyGuard
	dedup    DedupIndex
	log      *log.Logger
}

func NewPipeline(registry *extract.Registry, chunker *AdaptiveChunker, guard *SafetyGuard, dedup DedupIndex, logger *log.Logger) *Pipeline {
	if registry == nil {
		registry = extract.NewRegistry()
	}
	if chunker == nil {
		chunker = NewAdaptiveChunker(nil)
	}
	if guard == nil {
		guard = NewSafetyGuard(DefaultLimits(), logger)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{registry: registry, chunker: chunker, guard: guard, dedup: dedup, log: logger}
}

// Ingest processes one raw document under the given chunking config. Errors
// carry the originating filename; a duplicate is a successful outcome, not
// an error. Once started, the run goes to completion or a terminal error —
// oversized input is truncated, never aborted.
func (p *Pipeline) Ingest(ctx context.Context, raw RawDocument, cfg ChunkingConfig) (*Result, error) {
	extractor, ok := p.registry.Resolve(raw.Filename, raw.DeclaredMIME, raw.Data)
	if !ok {
		return nil, fmt.Errorf("%s: %w", raw.Filename, ErrUnsupportedFormat)
	}

	if !extractor.Validate(raw.Data) {
		return nil, fmt.Errorf("%s: %w", raw.Filename, ErrInvalidFile)
	}

	extracted, err := extractor.Extract(raw.Filename, raw.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Filename, err)
	}
	for _, w := range extracted.Warnings {
		p.log.Warn("extraction warning", "file", raw.Filename, "warning", w)
	}

	hash := HashContent(raw.Data)

	if p.dedup != nil {
		id, found, derr := p.dedup.FindByHash(ctx, hash)
		switch {
		case derr != nil:
			// Degraded mode: a missing dedup index must not block
			// ingestion, it only costs a potential re-embedding.
			p.log.Warn("dedup index unavailable, skipping duplicate check",
				"file", raw.Filename, "error", derr)
		case found:
			p.log.Info("duplicate content, skipping chunking",
				"file", raw.Filename, "existing", id)
			return &Result{Duplicate: &DuplicateRef{Hash: hash, DocumentID: id}}, nil
		}
	}

	text, truncated := p.guard.TruncateText(extracted.Text)
	chunks := p.chunker.Chunk(text, extractor.Format(), cfg)
	chunks = p.guard.CapChunks(chunks)

	return &Result{Document: &ProcessedDocument{
		Text:   text,
		Chunks: chunks,
		Hash:   hash,
		Metadata: Metadata{
			Format:    extractor.Format(),
			Processor: extractor.Name(),
			Title:     extracted.Title,
			Author:    extracted.Author,
			Pages:     extracted.Pages,
		},
		Truncated: truncated,
		Warnings:  extracted.Warnings,
	}}, nil
}
