package ingest

import (
	"github.com/charmbracelet/log"
)

// TruncationMarker is appended to text cut at MaxTextLength so the loss is
// visible downstream.
const TruncationMarker = "\n\n[содержимое обрезано / content truncated]"

// Limits are the hard input-side ceilings. Unbounded chunk counts translate
// directly into unbounded embedding API calls, so both limits degrade
// gracefully (truncate, cap) instead of failing the document.
type Limits struct {
	MaxTextLength    int
	MaxChunksPerFile int
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxTextLength:    2_000_000,
		MaxChunksPerFile: 50,
	}
}

// SafetyGuard applies Limits. All truncation thresholds live here so the
// behavior is testable in one place.
type SafetyGuard struct {
	limits Limits
	log    *log.Logger
}

func NewSafetyGuard(limits Limits, logger *log.Logger) *SafetyGuard {
	if logger == nil {
		logger = log.Default()
	}
	if limits.MaxTextLength <= 0 {
		limits.MaxTextLength = DefaultLimits().MaxTextLength
	}
	if limits.MaxChunksPerFile <= 0 {
		limits.MaxChunksPerFile = DefaultLimits().MaxChunksPerFile
	}
	return &SafetyGuard{limits: limits, log: logger}
}

// TruncateText cuts text to MaxTextLength characters and appends the
// truncation marker. The second return reports whether anything was cut.
func (g *SafetyGuard) TruncateText(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) <= g.limits.MaxTextLength {
		return text, false
	}
	g.log.Warn("text exceeds maximum length, truncating",
		"length", len(runes), "max", g.limits.MaxTextLength)
	return string(runes[:g.limits.MaxTextLength]) + TruncationMarker, true
}

// CapChunks drops everything past MaxChunksPerFile. The tail is not
// recoverable; the event is a warning, never an error.
func (g *SafetyGuard) CapChunks(chunks []Chunk) []Chunk {
	if len(chunks) <= g.limits.MaxChunksPerFile {
		return chunks
	}
	g.log.Warn("chunk count exceeds per-file maximum, dropping tail",
		"have", len(chunks), "max", g.limits.MaxChunksPerFile)
	return chunks[:g.limits.MaxChunksPerFile]
}

// MaxChunks exposes the cap for callers sizing downstream batches.
func (g *SafetyGuard) MaxChunks() int { return g.limits.MaxChunksPerFile }
