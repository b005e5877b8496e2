package core

import (
	"context"

	"github.com/avoronov/textura/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	// GetDocumentByHash returns the oldest non-failed document with this
	// content hash, or nil when none exists. excludeID skips one document,
	// letting the ingestion worker look for duplicates of the row it is
	// currently processing; pass "" to match any row.
	GetDocumentByHash(ctx context.Context, hash string, excludeID string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, id string, status string) error
	UpdateDocumentProcessed(ctx context.Context, id string, title, author string, pageCount, chunkCount int) error

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)
	SearchDocumentChunks(ctx context.Context, documentID string, embedding []float32, topK int) ([]models.DocumentChunk, error)

	// GetAppSettings returns the app_settings table as a key/value map.
	// Workers read it once per document so a single ingestion run sees a
	// consistent configuration snapshot.
	GetAppSettings(ctx context.Context) (map[string]string, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
