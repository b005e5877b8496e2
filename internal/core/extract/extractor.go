// Package extract converts raw document bytes into plain text, one extractor
// per supported format. Extractors are registered in a static table and
// resolved by declared MIME type first, file extension second.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatFB2  Format = "fb2"
	FormatEPUB Format = "epub"
)

// Result is the output of a successful extraction.
type Result struct {
	Text     string
	Title    string
	Author   string
	Pages    int
	Warnings []string
}

// Extractor is the per-format capability contract. Validate is a cheap
// signature check and must not parse the whole file; Extract does the full
// conversion to plain text.
type Extractor interface {
	Format() Format
	Name() string
	MIMETypes() []string
	Extensions() []string
	Validate(data []byte) bool
	Extract(filename string, data []byte) (*Result, error)
}

// ErrEmptyExtraction is returned when a document parses fine but yields no
// usable text after trimming.
var ErrEmptyExtraction = errors.New("no usable text extracted")

// ExtractionError wraps a parser-level failure for one format.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Registry resolves a filename plus optional declared MIME type to an
// extractor. Resolution is a pure lookup over the registration order; the
// first match wins, no scoring.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds the default registry with all supported formats.
func NewRegistry() *Registry {
	return &Registry{extractors: []Extractor{
		NewPDFExtractor(),
		NewTXTExtractor(),
		NewDOCXExtractor(),
		NewDOCExtractor(),
		NewFB2Extractor(),
		NewEPUBExtractor(),
	}}
}

// Resolve returns the extractor for the given name and declared MIME type.
// Declared MIME is matched first, then the file extension. When neither
// matches and content is provided, the leading bytes are sniffed as a last
// resort. The boolean is false when nothing matches; the caller decides
// whether that is fatal.
func (r *Registry) Resolve(filename, declaredMIME string, data []byte) (Extractor, bool) {
	if mt := normalizeMIME(declaredMIME); mt != "" {
		for _, e := range r.extractors {
			for _, m := range e.MIMETypes() {
				if m == mt {
					return e, true
				}
			}
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext != "" {
		for _, e := range r.extractors {
			for _, x := range e.Extensions() {
				if x == ext {
					return e, true
				}
			}
		}
	}

	if len(data) > 0 {
		sniffed := mimetype.Detect(data).String()
		if mt := normalizeMIME(sniffed); mt != "" {
			for _, e := range r.extractors {
				for _, m := range e.MIMETypes() {
					if m == mt {
						return e, true
					}
				}
			}
		}
	}

	return nil, false
}

// Formats lists registered formats in registration order.
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.extractors))
	for _, e := range r.extractors {
		out = append(out, e.Format())
	}
	return out
}

// normalizeMIME strips parameters ("; charset=...") and lowercases the type.
func normalizeMIME(mt string) string {
	mt = strings.TrimSpace(strings.ToLower(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "application/octet-stream" {
		// Effectively "unknown"; let extension or sniffing decide.
		return ""
	}
	return mt
}
