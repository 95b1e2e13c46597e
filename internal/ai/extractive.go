package ai

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// Compile-time interface check.
var _ Summarizer = (*ExtractiveSummarizer)(nil)

// ExtractiveSummarizer builds a summary from the article's leading
// sentences. It runs locally and is deterministic.
type ExtractiveSummarizer struct{}

// NewExtractiveSummarizer creates an ExtractiveSummarizer.
func NewExtractiveSummarizer() *ExtractiveSummarizer {
	return &ExtractiveSummarizer{}
}

// Summarize takes whole sentences from the start of req.Text until at least
// MinLength words are collected, never exceeding MaxLength words. If the
// first sentence alone is longer than MaxLength it is cut at MaxLength words.
func (s *ExtractiveSummarizer) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.MaxLength <= 0 {
		return "", errors.New("extractive summarize: max length must be positive")
	}

	var (
		out   []string
		words int
	)
	for _, sentence := range splitSentences(req.Text) {
		n := len(strings.Fields(sentence))
		if words+n > req.MaxLength {
			if words == 0 {
				return TruncateWords(sentence, req.MaxLength), nil
			}
			break
		}
		out = append(out, sentence)
		words += n
		if words >= req.MinLength {
			break
		}
	}

	if len(out) == 0 {
		return "", errors.New("extractive summarize: no sentences in text")
	}
	return strings.Join(out, " "), nil
}

// splitSentences splits text on '.', '!' or '?' followed by whitespace.
// Whitespace inside sentences is collapsed.
func splitSentences(text string) []string {
	fields := strings.Fields(text)
	var (
		sentences []string
		cur       []string
	)
	for _, f := range fields {
		cur = append(cur, f)
		last := rune(f[len(f)-1])
		if last == '.' || last == '!' || last == '?' {
			if !isAbbreviation(f) {
				sentences = append(sentences, strings.Join(cur, " "))
				cur = nil
			}
		}
	}
	if len(cur) > 0 {
		sentences = append(sentences, strings.Join(cur, " "))
	}
	return sentences
}

// isAbbreviation catches single-letter initials and common honorifics so
// "J. Smith" or "Mr. Roe" do not end a sentence.
func isAbbreviation(word string) bool {
	trimmed := strings.TrimSuffix(word, ".")
	if len(trimmed) == 1 && unicode.IsUpper(rune(trimmed[0])) {
		return true
	}
	switch strings.ToLower(trimmed) {
	case "mr", "mrs", "ms", "dr", "inc", "corp", "co", "ltd", "jr", "sr", "st", "vs", "u.s":
		return true
	}
	return false
}
