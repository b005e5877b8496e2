package extract

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var errInvalidEncoding = errors.New("not valid UTF-8")

// TXTExtractor handles plain text. Validation is a full UTF-8 decode check;
// extraction is a pure decode with BOM stripping.
type TXTExtractor struct{}

func NewTXTExtractor() *TXTExtractor { return &TXTExtractor{} }

func (e *TXTExtractor) Format() Format { return FormatTXT }
func (e *TXTExtractor) Name() string   { return "plain-text" }
func (e *TXTExtractor) MIMETypes() []string {
	return []string{"text/plain", "text/markdown"}
}
func (e *TXTExtractor) Extensions() []string { return []string{"txt", "md", "text"} }

func (e *TXTExtractor) Validate(data []byte) bool {
	return utf8.Valid(data)
}

func (e *TXTExtractor) Extract(filename string, data []byte) (*Result, error) {
	if !utf8.Valid(data) {
		return nil, &ExtractionError{Format: FormatTXT, Err: errInvalidEncoding}
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyExtraction
	}
	return &Result{Text: text}, nil
}
