package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveByDeclaredMIME(t *testing.T) {
	r := NewRegistry()

	e, ok := r.Resolve("upload.bin", "application/pdf", nil)
	require.True(t, ok)
	assert.Equal(t, FormatPDF, e.Format())

	e, ok = r.Resolve("upload.bin", "application/epub+zip", nil)
	require.True(t, ok)
	assert.Equal(t, FormatEPUB, e.Format())
}

func TestResolveMIMEParametersStripped(t *testing.T) {
	r := NewRegistry()

	e, ok := r.Resolve("notes", "text/plain; charset=utf-8", nil)
	require.True(t, ok)
	assert.Equal(t, FormatTXT, e.Format())
}

func TestResolveOctetStreamFallsThrough(t *testing.T) {
	r := NewRegistry()

	// application/octet-stream means "unknown"; the extension decides.
	e, ok := r.Resolve("book.fb2", "application/octet-stream", nil)
	require.True(t, ok)
	assert.Equal(t, FormatFB2, e.Format())
}

func TestResolveByExtension(t *testing.T) {
	r := NewRegistry()

	for ext, want := range map[string]Format{
		"report.pdf":  FormatPDF,
		"notes.TXT":   FormatTXT,
		"letter.docx": FormatDOCX,
		"old.doc":     FormatDOC,
		"book.fb2":    FormatFB2,
		"novel.epub":  FormatEPUB,
	} {
		e, ok := r.Resolve(ext, "", nil)
		require.True(t, ok, ext)
		assert.Equal(t, want, e.Format(), ext)
	}
}

func TestResolveBySniffing(t *testing.T) {
	r := NewRegistry()

	e, ok := r.Resolve("attachment", "", []byte("%PDF-1.7\n"))
	require.True(t, ok)
	assert.Equal(t, FormatPDF, e.Format())
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Resolve("image.png", "image/png", nil)
	assert.False(t, ok)

	_, ok = r.Resolve("noext", "", nil)
	assert.False(t, ok)
}

func TestFormatsListed(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t,
		[]Format{FormatPDF, FormatTXT, FormatDOCX, FormatDOC, FormatFB2, FormatEPUB},
		r.Formats())
}

func TestValidateRejectsCrossFormat(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 ...")
	zipBytes := []byte{'P', 'K', 0x03, 0x04, 0, 0}
	oleBytes := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0}

	assert.True(t, NewPDFExtractor().Validate(pdfBytes))
	assert.False(t, NewPDFExtractor().Validate(zipBytes))

	assert.True(t, NewDOCXExtractor().Validate(zipBytes))
	assert.False(t, NewDOCXExtractor().Validate(pdfBytes))
	assert.False(t, NewDOCXExtractor().Validate(oleBytes))

	assert.True(t, NewDOCExtractor().Validate(oleBytes))
	assert.False(t, NewDOCExtractor().Validate(zipBytes))

	assert.True(t, NewEPUBExtractor().Validate(zipBytes))
	assert.False(t, NewEPUBExtractor().Validate(pdfBytes))
}

func TestTXTExtract(t *testing.T) {
	e := NewTXTExtractor()

	res, err := e.Extract("notes.txt", []byte("\ufeffПервая строка.\nВторая строка.\n"))
	require.NoError(t, err)
	// BOM stripped, content trimmed.
	assert.Equal(t, "Первая строка.\nВторая строка.", res.Text)
}

func TestTXTExtractEmpty(t *testing.T) {
	e := NewTXTExtractor()

	_, err := e.Extract("blank.txt", []byte("   \n\t \n"))
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestTXTValidateRejectsBinary(t *testing.T) {
	e := NewTXTExtractor()
	assert.True(t, e.Validate([]byte("обычный текст")))
	assert.False(t, e.Validate([]byte{0xff, 0xfe, 0x00, 0x81}))
}
