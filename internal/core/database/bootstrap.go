package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

const defaultEmbedDim = 1536

// EnsureBootstrapped creates the schema on first start. textura_meta holding
// version 1 marks a bootstrapped database; anything else triggers the full
// idempotent script. embedDim sets the vector column width and must match
// the embedding model.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, embedDim int) error {

	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	err := db.QueryRowContext(ctxBoot, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'textura_meta'
		)`).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}

	if !exists {
		return runBootstrap(ctxBoot, db, embedDim)
	}

	var hasVersion bool
	if err := db.QueryRowContext(ctxBoot, `SELECT EXISTS (SELECT 1 FROM textura_meta WHERE version = 1)`).Scan(&hasVersion); err != nil {
		return fmt.Errorf("meta version check failed: %w", err)
	}
	if !hasVersion {
		return runBootstrap(ctxBoot, db, embedDim)
	}

	return nil
}

// renderBootstrapSQL loads the embedded schema script and substitutes the
// embedding dimension. Non-positive dimensions fall back to the default.
func renderBootstrapSQL(embedDim int) (string, error) {
	sqlBytes, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return "", fmt.Errorf("read initdb.sql: %w", err)
	}
	if embedDim <= 0 {
		embedDim = defaultEmbedDim
	}
	return strings.ReplaceAll(string(sqlBytes), "{{EMBED_DIM}}", strconv.Itoa(embedDim)), nil
}

func runBootstrap(ctx context.Context, db *sql.DB, embedDim int) error {
	script, err := renderBootstrapSQL(embedDim)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
