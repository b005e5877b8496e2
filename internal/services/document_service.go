package services

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/avoronov/textura/internal/core"
	db "github.com/avoronov/textura/internal/core/database"
	"github.com/avoronov/textura/internal/core/extract"
	"github.com/avoronov/textura/internal/core/ingest"
	"github.com/avoronov/textura/internal/models"
)

type DocumentService struct {
	db       core.DbClient
	storage  core.ObjectClient
	registry *extract.Registry
	bucket   string
}

func NewDocumentService(dbc core.DbClient, storage core.ObjectClient, registry *extract.Registry, bucket string) *DocumentService {
	if registry == nil {
		registry = extract.NewRegistry()
	}
	return &DocumentService{db: dbc, storage: storage, registry: registry, bucket: bucket}
}

// UploadAndCreate stores an uploaded file and creates its document row. The
// raw bytes are hashed first: if a non-failed document with the same hash
// already exists the upload is skipped entirely and that document is returned
// with duplicate=true. The UNIQUE index on content_hash backs this check, so
// two racing uploads of identical bytes still converge on one row.
func (s *DocumentService) UploadAndCreate(ctx context.Context, userID, filename, contentType string, data []byte) (*models.Document, bool, error) {
	extractor, ok := s.registry.Resolve(filename, contentType, data)
	if !ok {
		return nil, false, ingest.ErrUnsupportedFormat
	}
	if !extractor.Validate(data) {
		return nil, false, ingest.ErrInvalidFile
	}

	hash := ingest.HashContent(data)
	if existing, err := s.db.GetDocumentByHash(ctx, hash, ""); err == nil && existing != nil {
		return existing, true, nil
	}

	docID := uuid.NewString()
	key := s.objectKey(userID, docID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, false, err
	}

	doc := &models.Document{
		ID:          docID,
		UserID:      userID,
		FileName:    filename,
		ContentHash: hash,
		StorageURL:  url,
		ContentType: contentType,
		Format:      string(extractor.Format()),
		Status:      "uploaded",
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		if db.IsUniqueViolation(err) {
			// Lost the race to an identical upload. The other row wins.
			_ = s.storage.DeleteFile(ctx, s.bucket, key)
			if existing, herr := s.db.GetDocumentByHash(ctx, hash, ""); herr == nil && existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}
	return doc, false, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.db.GetDocumentByID(ctx, id)
}

func (s *DocumentService) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	return s.db.ListDocumentsByUser(ctx, userID)
}

func (s *DocumentService) SetStatus(ctx context.Context, docID string, status string) error {
	return s.db.UpdateDocumentStatus(ctx, docID, status)
}

func (s *DocumentService) Chunks(ctx context.Context, docID string) ([]models.DocumentChunk, error) {
	return s.db.GetChunksByDocument(ctx, docID)
}

// objectKey creates a consistent S3 key layout.
func (s *DocumentService) objectKey(userID, docID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("users", userID, "documents", docID, filename)
}
