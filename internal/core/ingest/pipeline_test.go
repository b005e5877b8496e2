package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/textura/internal/core/extract"
)

type fakeDedup struct {
	byHash map[string]string
	err    error
	calls  int
}

func (f *fakeDedup) FindByHash(_ context.Context, hash string) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.byHash[hash]
	return id, ok, nil
}

func TestPipelineIngestTxt(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	raw := RawDocument{
		Filename:     "notes.txt",
		DeclaredMIME: "text/plain",
		Data:         []byte("Первая заметка о прочитанном. Вторая мысль по теме."),
	}
	res, err := p.Ingest(context.Background(), raw, DefaultChunkingConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.Nil(t, res.Duplicate)

	doc := res.Document
	assert.Equal(t, extract.FormatTXT, doc.Metadata.Format)
	assert.Equal(t, HashContent(raw.Data), doc.Hash)
	assert.False(t, doc.Truncated)
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, 0, doc.Chunks[0].Index)
}

func TestPipelineUnsupportedFormat(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	_, err := p.Ingest(context.Background(), RawDocument{
		Filename: "image.png",
		Data:     []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a},
	}, DefaultChunkingConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "image.png")
}

func TestPipelineInvalidFile(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil, nil)

	// A .pdf filename without the %PDF signature fails validation.
	_, err := p.Ingest(context.Background(), RawDocument{
		Filename: "broken.pdf",
		Data:     []byte("definitely not a pdf"),
	}, DefaultChunkingConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestPipelineDuplicateShortCircuit(t *testing.T) {
	data := []byte("Содержимое, которое уже было загружено ранее.")
	dedup := &fakeDedup{byHash: map[string]string{
		HashContent(data): "doc-123",
	}}
	p := NewPipeline(nil, nil, nil, dedup, nil)

	res, err := p.Ingest(context.Background(), RawDocument{
		Filename: "copy.txt",
		Data:     data,
	}, DefaultChunkingConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Duplicate)
	assert.Nil(t, res.Document)
	assert.Equal(t, "doc-123", res.Duplicate.DocumentID)
	assert.Equal(t, HashContent(data), res.Duplicate.Hash)
}

func TestPipelineSameBytesDifferentName(t *testing.T) {
	data := []byte("Один и тот же файл под разными именами.")
	dedup := &fakeDedup{byHash: map[string]string{}}
	p := NewPipeline(nil, nil, nil, dedup, nil)

	first, err := p.Ingest(context.Background(), RawDocument{Filename: "a.txt", Data: data}, DefaultChunkingConfig())
	require.NoError(t, err)
	require.NotNil(t, first.Document)

	dedup.byHash[first.Document.Hash] = "doc-a"

	second, err := p.Ingest(context.Background(), RawDocument{Filename: "b.txt", Data: data}, DefaultChunkingConfig())
	require.NoError(t, err)
	require.NotNil(t, second.Duplicate)
	assert.Equal(t, "doc-a", second.Duplicate.DocumentID)
}

func TestPipelineDedupDegradedMode(t *testing.T) {
	dedup := &fakeDedup{err: errors.New("index down")}
	p := NewPipeline(nil, nil, nil, dedup, nil)

	// A failing dedup index must not block ingestion.
	res, err := p.Ingest(context.Background(), RawDocument{
		Filename: "resilient.txt",
		Data:     []byte("Документ должен обработаться несмотря на сбой индекса."),
	}, DefaultChunkingConfig())
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.Equal(t, 1, dedup.calls)
}

func TestPipelineTruncatesAndCaps(t *testing.T) {
	guard := NewSafetyGuard(Limits{MaxTextLength: 200, MaxChunksPerFile: 2}, nil)
	p := NewPipeline(nil, nil, guard, nil, nil)

	big := make([]byte, 0, 4000)
	for i := 0; i < 100; i++ {
		big = append(big, []byte("This line pads the document well past every limit. ")...)
	}

	res, err := p.Ingest(context.Background(), RawDocument{
		Filename: "big.txt",
		Data:     big,
	}, ChunkingConfig{ChunkSizeTokens: 100, OverlapTokens: 0, PreserveStructure: false})
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.True(t, res.Document.Truncated)
	assert.LessOrEqual(t, len(res.Document.Chunks), 2)
}
