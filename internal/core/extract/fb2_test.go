package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fb2Sample = `<?xml version="1.0" encoding="utf-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0">
  <description>
    <title-info>
      <author>
        <first-name>Иван</first-name>
        <last-name>Петров</last-name>
      </author>
      <book-title>Дорога домой</book-title>
    </title-info>
  </description>
  <body>
    <section>
      <title><p>Глава 1</p></title>
      <p>Поезд тронулся ранним утром, когда город ещё спал.</p>
      <p>Никто не провожал его на перроне.</p>
    </section>
    <section>
      <title><p>Глава 2</p></title>
      <p>К вечеру за окном потянулись знакомые поля.</p>
    </section>
  </body>
  <binary id="cover.jpg" content-type="image/jpeg">aGVsbG8=</binary>
</FictionBook>`

func TestFB2Validate(t *testing.T) {
	e := NewFB2Extractor()
	assert.True(t, e.Validate([]byte(fb2Sample)))
	assert.False(t, e.Validate([]byte("<?xml version=\"1.0\"?><html/>")))
	assert.False(t, e.Validate([]byte("%PDF-1.4")))
}

func TestFB2Extract(t *testing.T) {
	e := NewFB2Extractor()

	res, err := e.Extract("kniga.fb2", []byte(fb2Sample))
	require.NoError(t, err)

	assert.Equal(t, "Дорога домой", res.Title)
	assert.Equal(t, "Иван Петров", res.Author)

	assert.Contains(t, res.Text, "Поезд тронулся ранним утром")
	assert.Contains(t, res.Text, "знакомые поля")
	// Base64 image payload must not leak into the text.
	assert.NotContains(t, res.Text, "aGVsbG8=")
}

func TestFB2ChapterMarkersSurvive(t *testing.T) {
	e := NewFB2Extractor()

	res, err := e.Extract("kniga.fb2", []byte(fb2Sample))
	require.NoError(t, err)

	// Section titles become standalone lines so the chunker can see them.
	lines := strings.Split(res.Text, "\n")
	assert.Contains(t, lines, "Глава 1")
	assert.Contains(t, lines, "Глава 2")
}

func TestFB2ExtractMalformed(t *testing.T) {
	e := NewFB2Extractor()

	_, err := e.Extract("broken.fb2", []byte(`<?xml version="1.0"?><FictionBook><body><p>Текст`))
	require.Error(t, err)
	var xerr *ExtractionError
	assert.ErrorAs(t, err, &xerr)
}

func TestFB2ExtractEmptyBody(t *testing.T) {
	e := NewFB2Extractor()

	_, err := e.Extract("empty.fb2", []byte(`<?xml version="1.0"?><FictionBook><body></body></FictionBook>`))
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestFB2AuthorNickname(t *testing.T) {
	e := NewFB2Extractor()
	src := `<?xml version="1.0"?>
<FictionBook>
  <description>
    <title-info>
      <author><nickname>anon42</nickname></author>
      <book-title>Без названия</book-title>
    </title-info>
  </description>
  <body><section><p>Единственный абзац текста.</p></section></body>
</FictionBook>`

	res, err := e.Extract("x.fb2", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "anon42", res.Author)
}
