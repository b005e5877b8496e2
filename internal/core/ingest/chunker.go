package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/avoronov/textura/internal/core/extract"
)

// Chunk is a bounded, trimmed span of extracted text intended for one
// embedding call. Indices are 0-based, contiguous and follow document order.
type Chunk struct {
	Content    string
	Index      int
	TokenCount int
}

const (
	// Chapter segments shorter than this mean the markers are noise
	// (a table of contents, running heads) rather than real boundaries.
	minChapterSegmentChars = 100

	// A chapter may exceed the token budget by this factor before it is
	// recursively re-split with the sliding window.
	chapterOversizeFactor = 2

	// Blank-line segments below this length are treated as noise by the
	// paragraph strategy.
	minParagraphChars = 20
)

// chapterMarker matches "Глава N", "Chapter N", "Часть N", "Part N" heading
// lines plus bare numbered-section lines ("12." / "IV.").
var chapterMarker = regexp.MustCompile(
	`(?mi)^[ \t]*(?:глава|часть|chapter|part)[ \t]+(?:\d+|[ivxlcdm]+)\b.*$` +
		`|^[ \t]*(?:\d+|[ivxlcdm]+)[.)][ \t]*$`)

// AdaptiveChunker splits extracted text into token-budgeted chunks using a
// format-appropriate strategy: chapter-aware for book formats, paragraph
// packing for word-processor formats and a token sliding window for
// everything else (and as the universal fallback).
type AdaptiveChunker struct {
	est *TokenEstimator
}

func NewAdaptiveChunker(est *TokenEstimator) *AdaptiveChunker {
	if est == nil {
		est = NewTokenEstimator()
	}
	return &AdaptiveChunker{est: est}
}

// Chunk splits text for the given format under cfg. Empty and
// whitespace-only segments are dropped; every emitted chunk is trimmed and
// indices are reassigned contiguously at the end.
func (c *AdaptiveChunker) Chunk(text string, format extract.Format, cfg ChunkingConfig) []Chunk {
	cfg = cfg.sanitized()
	text = strings.TrimSpace(normalizeNewlines(text))
	if text == "" {
		return nil
	}

	var contents []string
	switch format {
	case extract.FormatFB2, extract.FormatEPUB:
		contents = c.chapterSplit(text, cfg)
	case extract.FormatDOCX, extract.FormatDOC:
		contents = c.paragraphSplit(text, cfg)
	default:
		contents = c.windowSplit(text, cfg)
	}

	chunks := make([]Chunk, 0, len(contents))
	for _, s := range contents {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:    s,
			Index:      len(chunks),
			TokenCount: c.est.Estimate(s),
		})
	}
	return chunks
}

// chapterSplit cuts the text at chapter-marker lines. Markers are only
// trusted when they produce at least two segments and every segment carries
// real content; otherwise the sliding window takes over. An individual
// chapter far over the token budget is re-split recursively, and excessive
// chapter counts are bounded downstream by the per-file chunk cap.
func (c *AdaptiveChunker) chapterSplit(text string, cfg ChunkingConfig) []string {
	locs := chapterMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return c.windowSplit(text, cfg)
	}

	var cuts []int
	for _, l := range locs {
		if l[0] > 0 {
			cuts = append(cuts, l[0])
		}
	}

	var segments []string
	prev := 0
	for _, cut := range cuts {
		segments = append(segments, text[prev:cut])
		prev = cut
	}
	segments = append(segments, text[prev:])

	// A short preamble before the first marker (title page, author line)
	// belongs to the first chapter rather than being a segment of its own.
	if len(segments) > 1 {
		if head := strings.TrimSpace(segments[0]); len([]rune(head)) < minChapterSegmentChars {
			segments[1] = segments[0] + segments[1]
			segments = segments[1:]
		}
	}

	trimmed := segments[:0]
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			trimmed = append(trimmed, seg)
		}
	}
	segments = trimmed

	if len(segments) < 2 {
		return c.windowSplit(text, cfg)
	}
	for _, seg := range segments {
		if len([]rune(seg)) < minChapterSegmentChars {
			return c.windowSplit(text, cfg)
		}
	}

	var out []string
	for _, seg := range segments {
		if c.est.Estimate(seg) > chapterOversizeFactor*cfg.ChunkSizeTokens {
			out = append(out, c.windowSplit(seg, cfg)...)
			continue
		}
		out = append(out, seg)
	}
	return out
}

// paragraphSplit packs blank-line paragraphs greedily up to the token
// budget, starting a new chunk when the next paragraph would exceed it. A
// paragraph that alone exceeds the budget is re-split with the sliding
// window; no paragraph structure at all means the sliding window handles
// the whole text.
func (c *AdaptiveChunker) paragraphSplit(text string, cfg ChunkingConfig) []string {
	if c.est.Estimate(text) <= cfg.ChunkSizeTokens {
		return []string{text}
	}
	paras := splitParagraphs(text, minParagraphChars)
	if len(paras) < 2 {
		return c.windowSplit(text, cfg)
	}
	var segs []string
	for _, p := range paras {
		if c.est.Estimate(p) > cfg.ChunkSizeTokens {
			segs = append(segs, c.windowSplit(p, cfg)...)
			continue
		}
		segs = append(segs, p)
	}
	return c.pack(segs, "\n\n", cfg)
}

// windowSplit is the token sliding window. With structure preservation the
// text is cut on paragraph then sentence edges and the budget never splits
// a sentence that fits; without it the text is a stream of
// whitespace-delimited words. Either way consecutive chunks share an
// overlap tail of roughly OverlapTokens.
func (c *AdaptiveChunker) windowSplit(text string, cfg ChunkingConfig) []string {
	if c.est.Estimate(text) <= cfg.ChunkSizeTokens {
		return []string{text}
	}
	if !cfg.PreserveStructure {
		return c.pack(strings.Fields(text), " ", cfg)
	}

	var segs []string
	for _, para := range splitParagraphs(text, 0) {
		if c.est.Estimate(para) <= cfg.ChunkSizeTokens {
			segs = append(segs, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if c.est.Estimate(sent) <= cfg.ChunkSizeTokens {
				segs = append(segs, sent)
				continue
			}
			// A single sentence over the budget: word window.
			segs = append(segs, c.pack(strings.Fields(sent), " ", cfg)...)
		}
	}
	return c.pack(segs, "\n", cfg)
}

// pack greedily accumulates segments into token-budgeted chunks. After each
// emission the buffer is reseeded with a tail of segments summing to about
// OverlapTokens, so consecutive chunks share cross-boundary context.
func (c *AdaptiveChunker) pack(segments []string, sep string, cfg ChunkingConfig) []string {
	var (
		out    []string
		buf    []string
		tokSum int
		fresh  int
	)

	flush := func() {
		if fresh == 0 {
			return
		}
		out = append(out, strings.Join(buf, sep))

		if cfg.OverlapTokens > 0 {
			keep := make([]string, 0, 4)
			remain := cfg.OverlapTokens
			for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
				keep = append([]string{buf[j]}, keep...)
				remain -= c.est.Estimate(buf[j])
			}
			// The seed must be a strict suffix of what was emitted or the
			// next chunk would repeat this one wholesale.
			if len(keep) == len(buf) && len(keep) > 1 {
				keep = keep[1:]
			}
			buf = keep
			tokSum = 0
			for _, s := range buf {
				tokSum += c.est.Estimate(s)
			}
		} else {
			buf = buf[:0]
			tokSum = 0
		}
		fresh = 0
	}

	for _, seg := range segments {
		t := c.est.Estimate(seg)
		if fresh > 0 && tokSum+t > cfg.ChunkSizeTokens {
			flush()
		}
		buf = append(buf, seg)
		tokSum += t
		fresh++
		if tokSum >= cfg.ChunkSizeTokens {
			flush()
		}
	}
	flush()
	return out
}

// splitParagraphs cuts on blank-line boundaries. Segments shorter than
// minLen runes (after trimming) are dropped as noise; minLen 0 keeps
// everything.
func splitParagraphs(text string, minLen int) []string {
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || len([]rune(p)) < minLen {
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitSentences cuts after terminal punctuation followed by whitespace,
// absorbing trailing quotes and brackets into the sentence.
func splitSentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?', '…':
			j := i + 1
			for j < len(runes) && strings.ContainsRune(`.!?…)]»"'`, runes[j]) {
				j++
			}
			if j >= len(runes) || unicode.IsSpace(runes[j]) {
				if sent := strings.TrimSpace(string(runes[start:j])); sent != "" {
					out = append(out, sent)
				}
				start = j
				i = j - 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
