package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avoronov/textura/internal/config"
	"github.com/avoronov/textura/internal/core"
	"github.com/avoronov/textura/internal/core/extract"
	"github.com/avoronov/textura/internal/core/ingest"
	"github.com/avoronov/textura/internal/models"
)

// DocumentIngestor orchestrates the background ingestion pipeline:
//
// db:        persistence for documents, chunks and runtime settings.
// obj:       object storage the raw bytes are fetched back from.
// embedder:  embedding provider (Gemini).
// jobs:      in-memory queue of document IDs to process (easy to swap with a broker later).
type DocumentIngestor struct {
	db       core.DbClient
	obj      core.ObjectClient
	embedder core.EmbeddingProvider
	registry *extract.Registry
	chunker  *ingest.AdaptiveChunker
	cfg      *config.Config
	jobs     chan string
	log      *log.Logger
}

// NewDocumentIngestor constructs the ingestor with a bounded job queue (64).
func NewDocumentIngestor(dbc core.DbClient, obj core.ObjectClient, emb core.EmbeddingProvider, cfg *config.Config, logger *log.Logger) *DocumentIngestor {
	if logger == nil {
		logger = log.Default()
	}
	return &DocumentIngestor{
		db:       dbc,
		obj:      obj,
		embedder: emb,
		registry: extract.NewRegistry(),
		chunker:  ingest.NewAdaptiveChunker(nil),
		cfg:      cfg,
		jobs:     make(chan string, 64),
		log:      logger,
	}
}

// Start runs numWorkers goroutines reading from the jobs channel until the
// context is canceled. Per-document failures are recorded on the document
// row and never stop a worker.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case docID := <-i.jobs:
					if err := i.ProcessOne(gctx, docID); err != nil {
						i.log.Error("ingestion failed", "document", docID, "error", err)
					}
				}
			}
		})
	}
	go func() { _ = g.Wait() }()
}

// Enqueue schedules a document ID for ingestion.
// If the queue is full, this call will block until space frees up.
func (i *DocumentIngestor) Enqueue(docID string) {
	i.jobs <- docID
}

// ProcessOne fetches, extracts, chunks, embeds and persists a single
// document. The chunking configuration is snapshotted once at the start, so
// a settings change mid-run never mixes strategies within one document.
func (i *DocumentIngestor) ProcessOne(ctx context.Context, docID string) error {
	doc, err := i.db.GetDocumentByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document not found: %s", docID)
	}

	_ = i.db.UpdateDocumentStatus(ctx, docID, "processing")

	bucket, key := parseS3URL(doc.StorageURL)
	data, err := i.obj.GetFile(ctx, bucket, key)
	if err != nil {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return fmt.Errorf("fetch object: %w", err)
	}

	chunkCfg, limits := i.configSnapshot(ctx)
	pipeline := ingest.NewPipeline(
		i.registry,
		i.chunker,
		ingest.NewSafetyGuard(limits, i.log),
		&hashIndex{db: i.db, exclude: docID},
		i.log,
	)

	res, err := pipeline.Ingest(ctx, ingest.RawDocument{
		Filename:     doc.FileName,
		DeclaredMIME: doc.ContentType,
		Data:         data,
	}, chunkCfg)
	if err != nil {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return err
	}

	if res.Duplicate != nil {
		// Identical bytes were already ingested under another document;
		// reuse its chunks instead of re-embedding.
		i.log.Info("document is a duplicate", "document", docID, "of", res.Duplicate.DocumentID)
		return i.db.UpdateDocumentStatus(ctx, docID, "ready")
	}

	pd := res.Document
	if err := i.embedAndPersist(ctx, docID, pd.Chunks); err != nil {
		_ = i.db.UpdateDocumentStatus(ctx, docID, "failed")
		return err
	}

	if err := i.db.UpdateDocumentProcessed(ctx, docID,
		pd.Metadata.Title, pd.Metadata.Author, pd.Metadata.Pages, len(pd.Chunks)); err != nil {
		return err
	}
	return i.db.UpdateDocumentStatus(ctx, docID, "ready")
}

// embedAndPersist embeds chunks in fixed-size batches and writes each batch
// before starting the next. A short pause between batches keeps the embedding
// API under its rate limit.
func (i *DocumentIngestor) embedAndPersist(ctx context.Context, docID string, chunks []ingest.Chunk) error {
	batchSize := i.cfg.EmbedBatchSize
	if batchSize < 1 {
		batchSize = 10
	}
	delay := time.Duration(i.cfg.EmbedBatchDelayMs) * time.Millisecond

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for k := range batch {
			texts[k] = batch[k].Content
		}

		vecs, err := i.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(batch))
		}

		rows := make([]models.DocumentChunk, len(batch))
		for k := range batch {
			rows[k] = models.DocumentChunk{
				ID:         uuid.NewString(),
				DocumentID: docID,
				Text:       batch[k].Content,
				Embedding:  vecs[k],
				Position:   batch[k].Index,
				TokenCount: batch[k].TokenCount,
			}
		}
		if err := i.db.InsertDocumentChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}

		if end < len(chunks) && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

// configSnapshot merges app_settings over the environment defaults. A
// settings read failure degrades to env values; it never blocks ingestion.
func (i *DocumentIngestor) configSnapshot(ctx context.Context) (ingest.ChunkingConfig, ingest.Limits) {
	chunkCfg := ingest.ChunkingConfig{
		ChunkSizeTokens:   i.cfg.ChunkSizeTokens,
		OverlapTokens:     i.cfg.ChunkOverlapTokens,
		PreserveStructure: i.cfg.PreserveStructure,
	}
	limits := ingest.Limits{
		MaxTextLength:    i.cfg.MaxTextLength,
		MaxChunksPerFile: i.cfg.MaxChunksPerFile,
	}

	settings, err := i.db.GetAppSettings(ctx)
	if err != nil {
		i.log.Warn("app settings unavailable, using environment defaults", "error", err)
		return chunkCfg, limits
	}

	settingInt(settings, "CHUNK_SIZE_TOKENS", &chunkCfg.ChunkSizeTokens)
	settingInt(settings, "CHUNK_OVERLAP_TOKENS", &chunkCfg.OverlapTokens)
	settingBool(settings, "PRESERVE_STRUCTURE", &chunkCfg.PreserveStructure)
	settingInt(settings, "MAX_TEXT_LENGTH", &limits.MaxTextLength)
	settingInt(settings, "MAX_CHUNKS_PER_FILE", &limits.MaxChunksPerFile)
	return chunkCfg, limits
}

func settingInt(settings map[string]string, key string, dst *int) {
	if v, ok := settings[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func settingBool(settings map[string]string, key string, dst *bool) {
	if v, ok := settings[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

// hashIndex adapts DbClient to the pipeline's duplicate lookup, excluding
// the document currently being processed from matching itself.
type hashIndex struct {
	db      core.DbClient
	exclude string
}

func (h *hashIndex) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	doc, err := h.db.GetDocumentByHash(ctx, hash, h.exclude)
	if err != nil {
		return "", false, err
	}
	if doc == nil {
		return "", false, nil
	}
	return doc.ID, true, nil
}

// parseS3URL extracts the bucket and key from a virtual-hosted-style S3 URL.
// Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
