// Package pipeline turns a stock query into summarized news records. It
// checks the result cache, searches the news source, then fetches, extracts,
// filters and summarizes candidates concurrently while accepting records in
// the source's ranking order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hoanghai1803/tickerbrief/internal/ai"
	"github.com/hoanghai1803/tickerbrief/internal/blocklist"
	"github.com/hoanghai1803/tickerbrief/internal/cache"
	"github.com/hoanghai1803/tickerbrief/internal/models"
	"github.com/hoanghai1803/tickerbrief/internal/news"
)

// Result sources.
const (
	SourceCache = "cache"
	SourceAPI   = "api"
)

const (
	defaultConcurrency = 5
	defaultRunTimeout  = 2 * time.Minute

	summaryInputWords = 1024
	maxSummaryWords   = 1000
	minSummaryWords   = 50
)

// Fetcher downloads raw article HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor turns raw HTML into readable article text.
type Extractor interface {
	Extract(raw []byte, pageURL string) (*models.ExtractedArticle, error)
}

// Result is the outcome of one Run.
type Result struct {
	Articles []models.SummaryRecord
	Source   string
	// FetchTime is the wall time the caller spent in Run.
	FetchTime time.Duration
	// BlockedDomains lists domains this run added to the blocklist.
	BlockedDomains []string
}

// Config tunes a Pipeline.
type Config struct {
	// Concurrency caps how many candidates are processed at once.
	Concurrency int
	// RunTimeout bounds a pipeline execution, which is detached from the
	// caller so concurrent callers for the same query can share it.
	RunTimeout time.Duration
}

// Pipeline orchestrates one news request end to end.
type Pipeline struct {
	source     news.Source
	fetcher    Fetcher
	extractor  Extractor
	summarizer ai.Summarizer
	blocklist  *blocklist.Blocklist
	cache      *cache.Cache
	cfg        Config
	now        func() time.Time

	inflight singleflight.Group
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now for FetchTime measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline from its collaborators.
func New(source news.Source, fetcher Fetcher, extractor Extractor, summarizer ai.Summarizer,
	bl *blocklist.Blocklist, c *cache.Cache, cfg Config, opts ...Option) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	p := &Pipeline{
		source:     source,
		fetcher:    fetcher,
		extractor:  extractor,
		summarizer: summarizer,
		blocklist:  bl,
		cache:      c,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run serves q from the cache when a fresh entry exists, otherwise searches
// upstream and processes candidates until q.RequestedCount records are
// accepted or candidates run out. It returns an error wrapping
// models.ErrInvalidQuery for a bad query, or a *news.UpstreamError when the
// news source fails.
func (p *Pipeline) Run(ctx context.Context, q models.NewsQuery) (*Result, error) {
	start := p.now()
	q.StockName = strings.TrimSpace(q.StockName)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entry, err := p.cache.Get(ctx, q)
	if err != nil {
		slog.Warn("cache lookup failed, running pipeline", "stock", q.StockName, "error", err)
	}
	if entry != nil {
		return &Result{
			Articles:       entry.Records,
			Source:         SourceCache,
			FetchTime:      p.now().Sub(start),
			BlockedDomains: []string{},
		}, nil
	}

	key := fmt.Sprintf("%s\x00%d", q.StockName, q.RequestedCount)
	ch := p.inflight.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.RunTimeout)
		defer cancel()
		return p.execute(runCtx, q)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := res.Val.(*Result)
		out := *shared
		out.FetchTime = p.now().Sub(start)
		return &out, nil
	}
}

// execute runs the uncached path: search, accumulate, then cache.
func (p *Pipeline) execute(ctx context.Context, q models.NewsQuery) (*Result, error) {
	runID := uuid.NewString()
	log := slog.With("run_id", runID, "stock", q.StockName)

	candidates, err := p.source.Search(ctx, q.StockName)
	if err != nil {
		log.Error("news search failed", "error", err)
		return nil, fmt.Errorf("searching news for %q: %w", q.StockName, err)
	}
	log.Info("fetched candidates", "count", len(candidates), "requested", q.RequestedCount)

	records, blocked := p.accumulate(ctx, log, q, candidates)

	if err := p.cache.Put(ctx, q, records); err != nil {
		log.Error("failed to cache results", "error", err)
	}

	log.Info("pipeline done", "records", len(records), "blocked", len(blocked))
	return &Result{
		Articles:       records,
		Source:         SourceAPI,
		BlockedDomains: blocked,
	}, nil
}

// accumulate processes candidates with bounded concurrency and returns the
// accepted records in candidate order together with any domains blocked
// along the way.
func (p *Pipeline) accumulate(ctx context.Context, log *slog.Logger, q models.NewsQuery, candidates []models.Candidate) ([]models.SummaryRecord, []string) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	domains := make([]string, len(candidates))
	for i, c := range candidates {
		domains[i] = blocklist.DomainOf(c.URL)
	}
	st := newRunState(q.StockName, q.RequestedCount, domains, p.blocklist.List(), cancel)

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)

	for i, c := range candidates {
		if runCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			o := p.process(runCtx, st, i, c, domains[i])
			log.Debug("candidate processed", "rank", i, "url", c.URL, "outcome", o.reason)
			st.resolve(i, o)
			return nil
		})
	}
	_ = g.Wait()

	return st.result()
}

// process runs one candidate through blocklist check, fetch, extract,
// relevance filter and summarize. Fetches on one domain are serialized in
// rank order, so a domain blocked by an earlier candidate is never fetched
// again in the same run.
func (p *Pipeline) process(ctx context.Context, st *runState, rank int, c models.Candidate, domain string) outcome {
	release := sync.OnceFunc(func() { st.fetchDone(rank) })
	defer release()

	if err := st.awaitFetchTurn(ctx, rank); err != nil {
		return skip(skipCanceled, domain)
	}
	if st.blockedFor(domain, rank) {
		return skip(skipBlocked, domain)
	}
	if ctx.Err() != nil {
		return skip(skipCanceled, domain)
	}

	raw, err := p.fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return p.fetchFailed(ctx, st, rank, c.URL, domain, err)
	}
	release()

	article, err := p.extractor.Extract(raw, c.URL)
	if err != nil {
		slog.Debug("extraction failed", "url", c.URL, "error", err)
		return skip(skipParse, domain)
	}

	if !news.IsRelevant(article.BodyText, c.Title, st.stockName) {
		return skip(skipIrrelevant, domain)
	}

	summary, err := p.summarize(ctx, article.BodyText)
	if err != nil {
		if ctx.Err() != nil {
			return skip(skipCanceled, domain)
		}
		slog.Warn("summarization failed", "url", c.URL, "error", err)
		return skip(skipSummarize, domain)
	}

	rec := models.SummaryRecord{
		Title:   firstNonEmpty(article.Title, c.Title),
		Summary: summary,
		URL:     c.URL,
	}
	if img := firstNonEmpty(c.ImageURL, article.ImageURL); img != "" {
		rec.ImageURL = &img
	}
	return outcome{record: &rec, reason: accepted, domain: domain}
}

// fetchFailed classifies a fetch error. Permanent failures block the domain
// for this and future runs; the write outlives the run's cancellation.
func (p *Pipeline) fetchFailed(ctx context.Context, st *runState, rank int, rawURL, domain string, err error) outcome {
	var fe *news.FetchError
	if !errors.As(err, &fe) {
		slog.Warn("fetch failed", "url", rawURL, "error", err)
		return skip(skipFetch, domain)
	}

	switch {
	case fe.Kind == news.FetchCanceled || ctx.Err() != nil:
		return skip(skipCanceled, domain)
	case fe.Permanent():
		o := skip(skipHTTPStatus, domain)
		o.blocks = true
		st.markBlocked(domain, rank)
		if domain == "" {
			return o
		}
		added, addErr := p.blocklist.Add(context.WithoutCancel(ctx), domain)
		if addErr != nil {
			slog.Error("failed to block domain", "domain", domain, "error", addErr)
			return o
		}
		if added {
			slog.Info("blocked domain", "domain", domain, "status", fe.StatusCode, "url", rawURL)
			o.newlyBlocked = true
		}
		return o
	case fe.Kind == news.FetchHTTPStatus:
		slog.Warn("fetch returned error status", "url", rawURL, "status", fe.StatusCode)
		return skip(skipHTTPStatus, domain)
	default:
		slog.Warn("fetch failed", "url", rawURL, "kind", fe.Kind, "error", fe.Err)
		return skip(skipFetch, domain)
	}
}

// summarize sizes the request from the body and caps the result to the
// word budget.
func (p *Pipeline) summarize(ctx context.Context, body string) (string, error) {
	maxLen := min(maxSummaryWords, utf8.RuneCountInString(body)/4)
	if maxLen <= 0 {
		return "", errors.New("article too short to summarize")
	}
	minLen := min(minSummaryWords, maxLen)

	summary, err := p.summarizer.Summarize(ctx, ai.SummarizeRequest{
		Text:      ai.TruncateWords(body, summaryInputWords),
		MaxLength: maxLen,
		MinLength: minLen,
	})
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(ai.TruncateWords(summary, maxLen))
	if summary == "" {
		return "", errors.New("empty summary")
	}
	return summary, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
