package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

// docxDocument assembles a minimal word/document.xml. Paragraphs are emitted
// without inter-tag whitespace so extracted text can be compared exactly.
func docxDocument(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"word/document.xml":   documentXML,
	})
}

func TestDOCXExtract(t *testing.T) {
	e := NewDOCXExtractor()
	data := buildDOCX(t, docxDocument(
		"Первый абзац документа.",
		"Второй абзац документа.",
	))

	require.True(t, e.Validate(data))

	res, err := e.Extract("letter.docx", data)
	require.NoError(t, err)
	// Paragraphs become lines; markup never leaks into the text.
	assert.Equal(t, "Первый абзац документа.\nВторой абзац документа.", res.Text)
}

func TestDOCXExtractSkipsFieldCodes(t *testing.T) {
	e := NewDOCXExtractor()
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:instrText>PAGEREF _Toc42</w:instrText></w:r>` +
		`<w:r><w:t>Видимый текст абзаца.</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	res, err := e.Extract("fields.docx", buildDOCX(t, doc))
	require.NoError(t, err)
	assert.Contains(t, res.Text, "Видимый текст абзаца.")
	assert.NotContains(t, res.Text, "PAGEREF")
}

func TestDOCXExtractEmptyBody(t *testing.T) {
	e := NewDOCXExtractor()
	data := buildDOCX(t, docxDocument())

	_, err := e.Extract("blank.docx", data)
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestDOCXExtractNotAZip(t *testing.T) {
	e := NewDOCXExtractor()

	_, err := e.Extract("broken.docx", []byte("not an OOXML archive"))
	require.Error(t, err)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, FormatDOCX, xerr.Format)
}

func TestDOCExtractMalformed(t *testing.T) {
	e := NewDOCExtractor()
	// The compound-file magic with a truncated, zeroed header is not a
	// readable document.
	data := append(append([]byte{}, oleMagic...), make([]byte, 56)...)

	require.True(t, e.Validate(data))

	_, err := e.Extract("corrupt.doc", data)
	require.Error(t, err)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, FormatDOC, xerr.Format)
}
