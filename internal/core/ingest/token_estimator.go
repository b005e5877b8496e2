package ingest

import (
	"math"
	"strings"
	"unicode"
)

// TokenEstimator approximates how many tokens a subword tokenizer would
// produce for a span of text. It is a pure, deterministic heuristic, not a
// real tokenizer: Cyrillic text averages ~2.5 characters per token, Latin
// words ~0.75 tokens per word, numeric runs one token each and punctuation
// runs half a token. If the estimate undercounts relative to the embedding
// provider's tokenizer, chunks can exceed the provider's hard limit; the
// estimator is isolated behind this type so a real tokenizer can replace it
// without touching the chunker.
type TokenEstimator struct{}

func NewTokenEstimator() *TokenEstimator { return &TokenEstimator{} }

// Estimate returns the token estimate for text, at least 1 for any input
// with non-whitespace content.
func (TokenEstimator) Estimate(text string) int {
	var (
		cyrillic   int
		latinWords int
		digitRuns  int
		punctRuns  int

		inLatin, inDigit, inPunct bool
	)

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
			inLatin, inDigit, inPunct = false, false, false
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			if !inLatin {
				latinWords++
			}
			inLatin, inDigit, inPunct = true, false, false
		case unicode.IsDigit(r):
			if !inDigit {
				digitRuns++
			}
			inLatin, inDigit, inPunct = false, true, false
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !inPunct {
				punctRuns++
			}
			inLatin, inDigit, inPunct = false, false, true
		default:
			inLatin, inDigit, inPunct = false, false, false
		}
	}

	weighted := float64(cyrillic)/2.5 +
		float64(latinWords)*0.75 +
		float64(digitRuns) +
		float64(punctRuns)*0.5

	n := int(math.Ceil(weighted))
	if n < 1 && strings.TrimSpace(text) != "" {
		n = 1
	}
	return n
}
