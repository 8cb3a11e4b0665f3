package text

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/spectrumcare/caredoc/internal/models"
)

// Stop words used by the coarse language heuristic. Intentionally small -
// the goal is "probably English" vs "probably not", nothing finer.
var englishStopWords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "in": {}, "to": {}, "of": {}, "a": {},
	"that": {}, "it": {}, "with": {}, "for": {}, "as": {}, "was": {},
	"on": {}, "are": {}, "this": {}, "be": {}, "has": {}, "at": {}, "by": {},
}

var (
	datePattern = regexp.MustCompile(`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b|\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}`)
	namePattern = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	capPattern  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// CountWords returns the number of whitespace-delimited tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CountSentences returns the number of non-empty segments split on
// sentence-ending punctuation.
func CountSentences(s string) int {
	count := 0
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(seg) != "" {
			count++
		}
	}
	return count
}

// CountSyllables estimates the syllables in one word by counting vowel-group
// runs, subtracting one for a silent trailing "e" when a syllable remains,
// with a floor of one syllable per word.
func CountSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if word == "" {
		return 0
	}

	isVowel := func(r rune) bool {
		return strings.ContainsRune("aeiouy", r)
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// ReadabilityScore computes the Flesch Reading Ease score:
// 206.835 - 1.015*(words/sentences) - 84.6*(syllables/words).
// Returns 0 when the text has no words or no sentences, never NaN or Inf.
// The score may be negative for very dense text.
func ReadabilityScore(s string) float64 {
	words := strings.Fields(s)
	wordCount := len(words)
	sentenceCount := CountSentences(s)

	if wordCount == 0 || sentenceCount == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syl := CountSyllables(w)
		if syl == 0 {
			syl = 1
		}
		syllables += syl
	}

	return 206.835 -
		1.015*(float64(wordCount)/float64(sentenceCount)) -
		84.6*(float64(syllables)/float64(wordCount))
}

// DetectLanguage classifies text as "en" when more than 10% of its tokens are
// common English stop words, otherwise "unknown". Deliberately coarse.
func DetectLanguage(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	if len(tokens) == 0 {
		return "unknown"
	}

	hits := 0
	for _, tok := range tokens {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		if _, ok := englishStopWords[tok]; ok {
			hits++
		}
	}

	if float64(hits)/float64(len(tokens)) > 0.1 {
		return "en"
	}
	return "unknown"
}

// ScoreQuality buckets extracted text into excellent/good/fair/poor using an
// additive score over length thresholds, clinical keywords, a date-like
// pattern, and a name-like pattern.
func ScoreQuality(s string) models.QualityBucket {
	lower := strings.ToLower(s)
	score := 0

	switch words := CountWords(s); {
	case words > 2000:
		score += 3
	case words > 1000:
		score += 2
	case words > 500:
		score++
	}

	if strings.Contains(lower, "assessment") || strings.Contains(lower, "evaluation") {
		score++
	}
	if strings.Contains(lower, "recommendation") {
		score++
	}
	if strings.Contains(lower, "diagnosis") {
		score++
	}
	if datePattern.MatchString(s) {
		score++
	}
	if namePattern.MatchString(s) {
		score++
	}

	switch {
	case score >= 6:
		return models.QualityExcellent
	case score >= 4:
		return models.QualityGood
	case score >= 2:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}

// ExtractionConfidence estimates how trustworthy the extracted text is on a
// [0,1] scale. Starts at 0.5 and adds small bonuses for signals of real
// sentence structure; capped at 1.0.
func ExtractionConfidence(s string) float64 {
	confidence := 0.5

	if len(s) > 1000 {
		confidence += 0.2
	}
	if strings.Contains(s, ".") && strings.Contains(s, " ") {
		confidence += 0.1
	}
	if strings.ContainsAny(s, "0123456789") {
		confidence += 0.1
	}
	if capPattern.MatchString(s) {
		confidence += 0.1
	}
	if !strings.Contains(s, "???") && !strings.Contains(s, "###") {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// ComputeMetadata derives the full DocumentMetadata record from normalized
// text. Pure: recomputed on every run, never mutated in place.
func ComputeMetadata(s string) models.DocumentMetadata {
	return models.DocumentMetadata{
		WordCount:            CountWords(s),
		ReadabilityScore:     ReadabilityScore(s),
		Language:             DetectLanguage(s),
		Quality:              ScoreQuality(s),
		ExtractionConfidence: ExtractionConfidence(s),
	}
}
