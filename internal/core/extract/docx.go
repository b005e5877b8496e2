package extract

import (
	"bytes"
	"strings"

	"code.sajari.com/docconv"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// DOCXExtractor unpacks the OOXML container and concatenates paragraph text
// from the document part. Styling is discarded.
type DOCXExtractor struct{}

func NewDOCXExtractor() *DOCXExtractor { return &DOCXExtractor{} }

func (e *DOCXExtractor) Format() Format { return FormatDOCX }
func (e *DOCXExtractor) Name() string   { return "docconv-docx" }
func (e *DOCXExtractor) MIMETypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}
func (e *DOCXExtractor) Extensions() []string { return []string{"docx"} }

func (e *DOCXExtractor) Validate(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

func (e *DOCXExtractor) Extract(filename string, data []byte) (*Result, error) {
	body, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{Format: FormatDOCX, Err: err}
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, ErrEmptyExtraction
	}
	return &Result{Text: text}, nil
}
