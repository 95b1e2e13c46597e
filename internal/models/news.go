package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bounds for NewsQuery.RequestedCount.
const (
	MinRequestedCount = 1
	MaxRequestedCount = 20
)

// ErrInvalidQuery is returned by NewsQuery.Validate for a missing stock name
// or an out-of-range article count.
var ErrInvalidQuery = errors.New("invalid news query")

// NewsQuery identifies one request for stock news. The (StockName,
// RequestedCount) pair is also the cache key.
type NewsQuery struct {
	StockName      string `json:"stock_name"`
	RequestedCount int    `json:"num_articles"`
}

// Validate checks the query and returns an error wrapping ErrInvalidQuery
// when it cannot be served.
func (q NewsQuery) Validate() error {
	if strings.TrimSpace(q.StockName) == "" {
		return fmt.Errorf("%w: stock name is required", ErrInvalidQuery)
	}
	if q.RequestedCount < MinRequestedCount || q.RequestedCount > MaxRequestedCount {
		return fmt.Errorf("%w: number of articles must be between %d and %d",
			ErrInvalidQuery, MinRequestedCount, MaxRequestedCount)
	}
	return nil
}

// Candidate is an unvalidated article reference returned by a news source.
type Candidate struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}

// ExtractedArticle is the readable content of a fetched page.
type ExtractedArticle struct {
	Title    string
	BodyText string
	ImageURL string
}

// SummaryRecord is one summarized article returned to callers and stored in
// the result cache.
type SummaryRecord struct {
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	URL      string  `json:"url"`
	ImageURL *string `json:"image_url"`
}

// CacheEntry is the last successful pipeline result for a query.
type CacheEntry struct {
	Query     NewsQuery       `json:"query"`
	Records   []SummaryRecord `json:"records"`
	CreatedAt time.Time       `json:"created_at"`
}

// BlockedDomain is a domain excluded from article fetching.
type BlockedDomain struct {
	ID        int64     `json:"id"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}
