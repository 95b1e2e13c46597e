package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hoanghai1803/tickerbrief/internal/models"
)

// Compile-time interface check.
var _ Source = (*NewsAPIClient)(nil)

const (
	defaultNewsAPIBaseURL = "https://newsapi.org"
	defaultPageSize       = 100
	defaultLanguage       = "en"
)

// NewsAPIClient searches the NewsAPI "everything" endpoint.
type NewsAPIClient struct {
	apiKey   string
	baseURL  string
	language string
	pageSize int
	client   *http.Client
}

// NewsAPIConfig configures a NewsAPIClient. Zero values fall back to
// defaults.
type NewsAPIConfig struct {
	APIKey   string
	BaseURL  string
	Language string
	PageSize int
	Timeout  time.Duration
}

// NewNewsAPIClient creates a NewsAPIClient.
func NewNewsAPIClient(cfg NewsAPIConfig) *NewsAPIClient {
	c := &NewsAPIClient{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		pageSize: cfg.PageSize,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
	if c.baseURL == "" {
		c.baseURL = defaultNewsAPIBaseURL
	}
	if c.language == "" {
		c.language = defaultLanguage
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	if c.client.Timeout <= 0 {
		c.client.Timeout = 30 * time.Second
	}
	return c
}

// newsAPIResponse is the response body of /v2/everything. Error responses
// carry status "error" and a message.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		URL        string `json:"url"`
		Title      string `json:"title"`
		URLToImage string `json:"urlToImage"`
	} `json:"articles"`
}

// Search queries NewsAPI for stockName sorted by relevancy.
func (c *NewsAPIClient) Search(ctx context.Context, stockName string) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("q", ComposeQuery(stockName))
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("language", c.language)
	params.Set("apiKey", c.apiKey)

	endpoint := c.baseURL + "/v2/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Source: "newsapi", Err: fmt.Errorf("creating request: %w", err)}
	}

	slog.Debug("searching NewsAPI", "stock", stockName)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Source: "newsapi", Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Source: "newsapi", StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	var apiResp newsAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &UpstreamError{
			Source:     "newsapi",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("parsing response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || apiResp.Status != "ok" {
		return nil, &UpstreamError{
			Source:     "newsapi",
			StatusCode: resp.StatusCode,
			Message:    apiResp.Message,
		}
	}

	candidates := make([]models.Candidate, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			URL:      a.URL,
			Title:    cleanTitle(a.Title),
			ImageURL: a.URLToImage,
		})
	}
	return candidates, nil
}
