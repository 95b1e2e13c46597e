package news

import "strings"

const (
	nameWindow    = 200
	keywordWindow = 500
	minKeywords   = 2
)

// financialKeywords is the fixed vocabulary scored by IsRelevant.
var financialKeywords = []string{
	"stock", "share", "price", "market", "trading", "investor", "valuation",
	"funding", "ipo", "initial public offering", "nasdaq", "nyse", "market cap",
	"earnings", "revenue", "profit", "financial", "quarter", "fiscal",
}

// IsRelevant reports whether an article is about stockName with enough
// financial signal. The stock name must appear (case-insensitively) in the
// title or the first 200 characters of the body; then at least two distinct
// financial keywords must appear in the title or the first 500 characters of
// the body.
func IsRelevant(bodyText, title, stockName string) bool {
	name := strings.ToLower(stockName)
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(bodyText)

	if !strings.Contains(titleLower, name) && !strings.Contains(prefix(bodyLower, nameWindow), name) {
		return false
	}

	window := prefix(bodyLower, keywordWindow)
	count := 0
	for _, kw := range financialKeywords {
		if strings.Contains(titleLower, kw) || strings.Contains(window, kw) {
			count++
		}
	}
	return count >= minKeywords
}

// prefix returns the first n characters (runes) of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
