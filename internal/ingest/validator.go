package ingest

import (
	"strings"
	"unicode"

	"github.com/bits-and-blooms/bitset"
)

// vocabulary is the fixed résumé-section keyword set §4.2's validator
// checks against; at least 2 must appear (case-insensitively) in the
// extracted text.
var vocabulary = []string{
	"experience", "education", "skills", "summary", "objective", "work",
	"projects", "certifications", "qualifications", "employment",
	"profile", "contact",
}

// permittedRunes is a bitset over the three permitted Unicode ranges
// §4.2 names: Basic Latin (U+0000-U+007F), Latin Extended
// (U+00C0-U+024F), Arabic (U+0600-U+06FF). Runes above the bitset's
// length are, by construction, never permitted.
var permittedRunes = buildPermittedRunes()

const permittedRunesLength = 0x0700

func buildPermittedRunes() *bitset.BitSet {
	b := bitset.New(permittedRunesLength)
	for r := rune(0x0000); r <= 0x007F; r++ {
		b.Set(uint(r))
	}
	for r := rune(0x00C0); r <= 0x024F; r++ {
		b.Set(uint(r))
	}
	for r := rune(0x0600); r <= 0x06FF; r++ {
		b.Set(uint(r))
	}
	return b
}

// validateExtractedText implements §4.2 Phase E's validator: at least 100
// non-whitespace characters, at least 2 vocabulary keywords present, and
// an out-of-permitted-range character ratio of at most 0.3.
func validateExtractedText(text string) bool {
	if countNonWhitespace(text) < 100 {
		return false
	}
	if countVocabularyHits(text) < 2 {
		return false
	}
	return outOfRangeRatio(text) <= 0.3
}

func countNonWhitespace(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func countVocabularyHits(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, word := range vocabulary {
		if strings.Contains(lower, word) {
			hits++
		}
	}
	return hits
}

func outOfRangeRatio(text string) float64 {
	total := 0
	outOfRange := 0
	for _, r := range text {
		total++
		if r < 0 || uint(r) >= permittedRunesLength || !permittedRunes.Test(uint(r)) {
			outOfRange++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(outOfRange) / float64(total)
}
