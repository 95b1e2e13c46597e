package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoanghai1803/tickerbrief/internal/models"
	"github.com/mrz1836/go-sanitize"
)

// Source searches an upstream news service for articles about a stock.
// Candidates are returned in the upstream's relevance order.
type Source interface {
	Search(ctx context.Context, stockName string) ([]models.Candidate, error)
}

// UpstreamError reports that the news source could not serve a search.
type UpstreamError struct {
	Source     string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s search failed", e.Source)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// financialTerms narrows upstream search to finance coverage.
var financialTerms = []string{
	"stock", "shares", "investor", `"market cap"`, "valuation", "funding",
	"IPO", `"initial public offering"`, "nasdaq", "nyse",
}

// ComposeQuery builds the upstream search expression for stockName.
func ComposeQuery(stockName string) string {
	return fmt.Sprintf(`"%s" AND (%s)`, stockName, strings.Join(financialTerms, " OR "))
}

// cleanTitle strips markup some publishers leave in headlines.
func cleanTitle(s string) string {
	return strings.TrimSpace(sanitize.HTML(s))
}
