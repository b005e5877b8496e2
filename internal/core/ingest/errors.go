package ingest

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Extraction-level failures (ErrEmptyExtraction,
// ExtractionError) live in the extract package and are wrapped with the
// originating filename on the way out. None of these are retried: they are
// deterministic given the same bytes.
var (
	// ErrUnsupportedFormat: no extractor resolves for the file.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidFile: the resolved extractor rejected the file signature.
	ErrInvalidFile = errors.New("corrupt or invalid file")
)

// DuplicateRef reports a successful short-circuit: content with this hash
// was already ingested, so chunking and embedding were skipped.
type DuplicateRef struct {
	Hash       string
	DocumentID string
}

func (d *DuplicateRef) String() string {
	return fmt.Sprintf("duplicate of document %s (hash %s)", d.DocumentID, d.Hash)
}
