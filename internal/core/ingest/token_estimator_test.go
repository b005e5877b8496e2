package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateEmpty(t *testing.T) {
	est := NewTokenEstimator()
	assert.Equal(t, 0, est.Estimate(""))
	assert.Equal(t, 0, est.Estimate("   \n\t  "))
}

func TestEstimateMinimumOne(t *testing.T) {
	est := NewTokenEstimator()
	// Any non-whitespace input yields at least one token.
	assert.Equal(t, 1, est.Estimate("a"))
	assert.Equal(t, 1, est.Estimate("я"))
	assert.Equal(t, 1, est.Estimate("."))
}

func TestEstimateCyrillic(t *testing.T) {
	est := NewTokenEstimator()
	// 10 Cyrillic letters at 2.5 chars per token = 4.
	assert.Equal(t, 4, est.Estimate("абвгдежзик"))
}

func TestEstimateLatinWords(t *testing.T) {
	est := NewTokenEstimator()
	// 4 word runs * 0.75 = 3.
	assert.Equal(t, 3, est.Estimate("the quick brown fox"))
}

func TestEstimateNumbers(t *testing.T) {
	est := NewTokenEstimator()
	// Each numeric run counts once regardless of length.
	assert.Equal(t, 2, est.Estimate("1234 567890"))
}

func TestEstimateDeterministic(t *testing.T) {
	est := NewTokenEstimator()
	text := "Глава 1. The beginning, часть первая (1999)."
	first := est.Estimate(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, est.Estimate(text))
	}
}

func TestEstimateScalesWithLength(t *testing.T) {
	est := NewTokenEstimator()
	short := strings.Repeat("слово ", 10)
	long := strings.Repeat("слово ", 100)
	assert.Greater(t, est.Estimate(long), est.Estimate(short))
}

func TestEstimateMixedScript(t *testing.T) {
	est := NewTokenEstimator()
	// 5 Cyrillic letters (2) + 1 Latin word (0.75) + 1 digit run (1) +
	// 1 punct run (0.5) = 4.25, ceil = 5.
	assert.Equal(t, 5, est.Estimate("слово word 42!"))
}
