package news

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/hoanghai1803/tickerbrief/internal/models"
)

// ErrNoContent is returned when a page has no readable body text.
var ErrNoContent = errors.New("no readable content")

// Extractor turns raw article HTML into title and body text.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// pageMeta holds OpenGraph/Twitter metadata used as fallbacks.
type pageMeta struct {
	Title string
	Image string
}

// Extract parses raw HTML fetched from pageURL. The title prefers the
// readability title and falls back to og:title, then <title>.
func (e *Extractor) Extract(raw []byte, pageURL string) (*models.ExtractedArticle, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url %q: %w", pageURL, err)
	}

	meta, err := readMeta(raw, u)
	if err != nil {
		return nil, fmt.Errorf("reading metadata from %q: %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(raw), u)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}

	body := strings.TrimSpace(article.TextContent)
	if body == "" {
		return nil, fmt.Errorf("extracting %q: %w", pageURL, ErrNoContent)
	}

	return &models.ExtractedArticle{
		Title:    firstNonEmpty(article.Title, meta.Title),
		BodyText: body,
		ImageURL: firstNonEmpty(meta.Image, article.Image),
	}, nil
}

// readMeta pulls title and lead image hints out of the document head.
func readMeta(raw []byte, base *url.URL) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return pageMeta{}, err
	}

	metaContent := func(attr, val string) string {
		if s, ok := doc.Find(fmt.Sprintf("meta[%s=%q]", attr, val)).Attr("content"); ok {
			return strings.TrimSpace(s)
		}
		return ""
	}

	m := pageMeta{
		Title: firstNonEmpty(
			metaContent("property", "og:title"),
			metaContent("name", "twitter:title"),
			doc.Find("title").First().Text(),
		),
		Image: firstNonEmpty(
			metaContent("property", "og:image"),
			metaContent("property", "og:image:secure_url"),
			metaContent("name", "twitter:image"),
		),
	}

	// Normalize relative image URLs.
	if m.Image != "" {
		if ref, err := url.Parse(m.Image); err == nil {
			m.Image = base.ResolveReference(ref).String()
		}
	}
	return m, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
