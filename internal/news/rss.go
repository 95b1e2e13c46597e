package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoanghai1803/tickerbrief/internal/models"
	"github.com/mmcdole/gofeed"
)

// Compile-time interface check.
var _ Source = (*GoogleNewsClient)(nil)

const defaultGoogleNewsBaseURL = "https://news.google.com"

// GoogleNewsClient searches the Google News RSS endpoint. It needs no API key
// and is used when no NewsAPI key is configured.
type GoogleNewsClient struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewGoogleNewsClient creates a GoogleNewsClient. An empty baseURL uses the
// public Google News host.
func NewGoogleNewsClient(baseURL, language string, timeout time.Duration) *GoogleNewsClient {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultGoogleNewsBaseURL
	}
	if language == "" {
		language = defaultLanguage
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleNewsClient{
		baseURL:  baseURL,
		language: language,
		client: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
	}
}

// Search fetches the RSS search feed for stockName. Feed item order is the
// upstream ranking.
func (c *GoogleNewsClient) Search(ctx context.Context, stockName string) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("q", ComposeQuery(stockName))
	params.Set("hl", c.language)
	params.Set("gl", "US")
	params.Set("ceid", "US:"+c.language)
	feedURL := c.baseURL + "/rss/search?" + params.Encode()

	fp := gofeed.NewParser()
	fp.Client = c.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		upstream := &UpstreamError{Source: "google_news", Err: fmt.Errorf("parsing feed: %w", err)}
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			upstream.StatusCode = httpErr.StatusCode
		}
		return nil, upstream
	}

	candidates := make([]models.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			URL:      item.Link,
			Title:    cleanTitle(item.Title),
			ImageURL: itemImage(item),
		})
	}
	return candidates, nil
}

// itemImage returns the item's image or its first image enclosure.
func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
