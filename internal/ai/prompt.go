package ai

import (
	"fmt"
	"strings"
)

const summarizeSystemPromptTmpl = `You are a financial news editor. Summarize the following news article in plain prose between %d and %d words. Keep the facts that matter to an investor: the company, what happened, figures mentioned (revenue, earnings, price moves, deal sizes), and any stated outlook. Do not speculate, add opinions, or include any prefix like "Summary:". Start directly with the first sentence.`

// SummarizePrompt builds the system and user prompts for article
// summarization.
func SummarizePrompt(req SummarizeRequest) (systemPrompt string, userPrompt string) {
	systemPrompt = fmt.Sprintf(summarizeSystemPromptTmpl, req.MinLength, req.MaxLength)

	var b strings.Builder
	b.WriteString("Article:\n")
	b.WriteString(req.Text)

	userPrompt = b.String()
	return systemPrompt, userPrompt
}

// maxTokensFor sizes the completion budget for a summary of maxWords words.
func maxTokensFor(maxWords int) int {
	tokens := maxWords * 2
	if tokens < 256 {
		tokens = 256
	}
	return tokens
}

// exhaustedStatus reports whether an HTTP status means the provider is out
// of capacity.
func exhaustedStatus(code int) bool {
	switch code {
	case 429, 503, 529:
		return true
	}
	return false
}
