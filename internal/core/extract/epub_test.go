package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const epubContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const epubOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Долгое путешествие</dc:title>
    <dc:creator>Анна Смирнова</dc:creator>
  </metadata>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

func epubFixture(t *testing.T) []byte {
	return buildZip(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": epubContainer,
		"OEBPS/content.opf":      epubOPF,
		"OEBPS/ch1.xhtml": `<html><head><title>служебный заголовок</title></head>
<body><h1>Глава 1</h1><p>Корабль вышел из гавани на рассвете.</p></body></html>`,
		"OEBPS/ch2.xhtml": `<html><body><h1>Глава 2</h1><p>Шторм настиг их на третий день.</p></body></html>`,
		"OEBPS/style.css": "p { margin: 0 }",
	})
}

func TestEPUBExtract(t *testing.T) {
	e := NewEPUBExtractor()
	data := epubFixture(t)

	require.True(t, e.Validate(data))

	res, err := e.Extract("voyage.epub", data)
	require.NoError(t, err)

	assert.Equal(t, "Долгое путешествие", res.Title)
	assert.Equal(t, "Анна Смирнова", res.Author)
	assert.Equal(t, 2, res.Pages)
	assert.Empty(t, res.Warnings)

	// Chapters follow spine order and headings survive as lines.
	assert.Contains(t, res.Text, "Глава 1")
	assert.Contains(t, res.Text, "Корабль вышел из гавани")
	assert.Contains(t, res.Text, "Шторм настиг их")
	assert.Less(t,
		bytes.Index([]byte(res.Text), []byte("Глава 1")),
		bytes.Index([]byte(res.Text), []byte("Глава 2")))

	// Styling and the HTML head never leak into the text.
	assert.NotContains(t, res.Text, "margin")
	assert.NotContains(t, res.Text, "служебный заголовок")
}

func TestEPUBMissingChapterIsWarning(t *testing.T) {
	e := NewEPUBExtractor()
	data := buildZip(t, map[string]string{
		"META-INF/container.xml": epubContainer,
		"OEBPS/content.opf":      epubOPF,
		// ch1 is missing entirely.
		"OEBPS/ch2.xhtml": `<html><body><p>Единственная уцелевшая глава.</p></body></html>`,
	})

	res, err := e.Extract("partial.epub", data)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "уцелевшая глава")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "ch1.xhtml")
}

func TestEPUBMissingContainer(t *testing.T) {
	e := NewEPUBExtractor()
	data := buildZip(t, map[string]string{
		"mimetype": "application/epub+zip",
	})

	_, err := e.Extract("broken.epub", data)
	require.Error(t, err)
	var xerr *ExtractionError
	assert.ErrorAs(t, err, &xerr)
	assert.Equal(t, FormatEPUB, xerr.Format)
}

func TestEPUBNotAZip(t *testing.T) {
	e := NewEPUBExtractor()
	assert.False(t, e.Validate([]byte("plain text, not a zip")))

	_, err := e.Extract("fake.epub", []byte("plain text, not a zip"))
	require.Error(t, err)
}
