// Package chunker splits section text into small pieces and picks the piece
// that best shows a search term.
package chunker

import (
	"strings"
)

// Config controls excerpt size.
type Config struct {
	MaxTokens int // Target excerpt size in tokens.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 40}
}

const ellipsis = "..."

// Count returns the number of non-overlapping, case-insensitive occurrences
// of term in text. An empty term never matches.
func Count(text, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), strings.ToLower(term))
}

// Excerpt returns a single-line piece of text of about cfg.MaxTokens tokens
// showing term. The chunk with the most matches wins; ties go to the earlier
// chunk. Text without a match yields its opening chunk.
func Excerpt(text, term string, cfg Config) string {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}

	parts := Split(text, cfg.MaxTokens)
	if len(parts) == 0 {
		return ""
	}

	best, bestCount := 0, -1
	for i, p := range parts {
		if c := Count(p, term); c > bestCount {
			best, bestCount = i, c
		}
	}

	words := strings.Fields(parts[best])
	limit := max(1, int(float64(cfg.MaxTokens)/1.33))
	if len(words) <= limit {
		return strings.Join(words, " ")
	}

	// A single sentence longer than the budget: centre a window on the first match.
	start := 0
	if bestCount > 0 {
		start = max(0, matchWord(words, term)-limit/2)
	}
	start = min(start, len(words)-limit)
	end := start + limit

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(ellipsis)
	}
	sb.WriteString(strings.Join(words[start:end], " "))
	if end < len(words) {
		sb.WriteString(ellipsis)
	}
	return sb.String()
}

// matchWord returns the index of the word where term first occurs, or 0.
// Terms may span several words.
func matchWord(words []string, term string) int {
	joined := strings.ToLower(strings.Join(words, " "))
	lower := strings.Join(strings.Fields(strings.ToLower(term)), " ")
	idx := strings.Index(joined, lower)
	if idx <= 0 || lower == "" {
		return 0
	}
	i := len(strings.Fields(joined[:idx]))
	if joined[idx-1] != ' ' {
		i-- // match starts inside a word
	}
	return i
}

// Split breaks text into pieces of approximately targetTokens, splitting on
// paragraphs first and sentences when a paragraph is too large.
func Split(text string, targetTokens int) []string {
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if currentTokens > 0 {
			result = append(result, current.String())
			current.Reset()
			currentTokens = 0
		}
	}

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		if paraTokens > targetTokens {
			flush()
			result = append(result, splitBySentences(para, targetTokens)...)
			continue
		}

		if currentTokens+paraTokens > targetTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}
	flush()

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based pieces.
func splitBySentences(text string, targetTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			current.Reset()
			currentTokens = 0
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
