package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF")

// PDFExtractor pulls the text layer out of a PDF page by page, in document
// order. Layout and positioning are discarded; only text runs survive.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) Format() Format      { return FormatPDF }
func (e *PDFExtractor) Name() string        { return "pdf-textlayer" }
func (e *PDFExtractor) MIMETypes() []string { return []string{"application/pdf"} }
func (e *PDFExtractor) Extensions() []string { return []string{"pdf"} }

func (e *PDFExtractor) Validate(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

func (e *PDFExtractor) Extract(filename string, data []byte) (res *Result, err error) {
	// The parser panics on malformed xref tables; turn that into a normal
	// extraction failure instead of taking the worker down.
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &ExtractionError{Format: FormatPDF, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Format: FormatPDF, Err: err}
	}

	var (
		sb       strings.Builder
		warnings []string
	)
	pages := reader.NumPage()
	for n := 1; n <= pages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", n, perr))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, ErrEmptyExtraction
	}
	return &Result{Text: text, Pages: pages, Warnings: warnings}, nil
}
