package extract

import (
	"bytes"
	"strings"

	"code.sajari.com/docconv"
)

// oleMagic is the compound-file signature every legacy Office binary starts with.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// DOCExtractor reads legacy Word binaries through the OLE compound-file
// streams. Footnotes and endnotes come back as appended labeled sections
// after the main body.
type DOCExtractor struct{}

func NewDOCExtractor() *DOCExtractor { return &DOCExtractor{} }

func (e *DOCExtractor) Format() Format { return FormatDOC }
func (e *DOCExtractor) Name() string   { return "docconv-doc" }
func (e *DOCExtractor) MIMETypes() []string {
	return []string{"application/msword"}
}
func (e *DOCExtractor) Extensions() []string { return []string{"doc"} }

func (e *DOCExtractor) Validate(data []byte) bool {
	return bytes.HasPrefix(data, oleMagic)
}

func (e *DOCExtractor) Extract(filename string, data []byte) (*Result, error) {
	body, _, err := docconv.ConvertDoc(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{Format: FormatDOC, Err: err}
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, ErrEmptyExtraction
	}
	return &Result{Text: text}, nil
}
