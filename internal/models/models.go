package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Document represents one uploaded file. ContentHash is the SHA-256 of the
// raw bytes and carries a UNIQUE index: byte-identical uploads resolve to the
// same document row no matter the filename they arrive under.
type Document struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentHash string    `db:"content_hash" json:"content_hash"`
	StorageURL  string    `db:"storage_url" json:"storage_url"`
	ContentType string    `db:"content_type" json:"content_type"`
	Format      string    `db:"format" json:"format"` // pdf | txt | docx | doc | fb2 | epub
	Title       string    `db:"title" json:"title,omitempty"`
	Author      string    `db:"author" json:"author,omitempty"`
	PageCount   int       `db:"page_count" json:"page_count,omitempty"`
	ChunkCount  int       `db:"chunk_count" json:"chunk_count"`
	Status      string    `db:"status" json:"status"` // uploaded | processing | ready | failed
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentChunk represents one text chunk from a document. Position is the
// 0-based chunk index within the document.
type DocumentChunk struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	Text       string    `db:"text" json:"text"`
	Embedding  []float32 `db:"embedding" json:"-"` // pgvector column
	Position   int       `db:"position" json:"position"`
	TokenCount int       `db:"token_count" json:"token_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
