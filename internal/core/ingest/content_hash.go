package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns the hex-encoded SHA-256 digest of raw document bytes.
// The digest is the sole deduplication key: byte-identical uploads map to
// the same logical document regardless of filename.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
