package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanghai1803/tickerbrief/internal/models"
	"github.com/hoanghai1803/tickerbrief/internal/news"
	"github.com/hoanghai1803/tickerbrief/internal/pipeline"
)

// defaultNumArticles is used when num_articles is absent.
const defaultNumArticles = 5

// NewsRunner produces summarized news for a query.
type NewsRunner interface {
	Run(ctx context.Context, q models.NewsQuery) (*pipeline.Result, error)
}

// NewsResponse is the body of a successful GET /api/news.
type NewsResponse struct {
	Articles       []models.SummaryRecord `json:"articles"`
	Source         string                 `json:"source"`
	FetchTime      float64                `json:"fetch_time"` // seconds
	BlockedDomains []string               `json:"blocked_domains"`
}

// GetNews handles GET /api/news?stock=<name>&num_articles=<1..20>. It
// returns summarized articles about the stock, served from the cache when a
// fresh result exists.
func GetNews(runner NewsRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stock := strings.TrimSpace(r.URL.Query().Get("stock"))
		if stock == "" {
			writeError(w, http.StatusBadRequest, "Stock name is required")
			return
		}

		count, err := queryInt(r, "num_articles", defaultNumArticles)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := runner.Run(ctx, models.NewsQuery{StockName: stock, RequestedCount: count})
		if err != nil {
			var upErr *news.UpstreamError
			switch {
			case errors.Is(err, models.ErrInvalidQuery):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.As(err, &upErr):
				slog.Error("failed to fetch news", "stock", stock, "error", err)
				writeErrorDetails(w, http.StatusInternalServerError, "Failed to fetch news", upErr.Error())
			case errors.Is(err, context.Canceled):
				// Client went away; nothing useful to write.
				slog.Info("news request canceled", "stock", stock)
			default:
				slog.Error("news pipeline failed", "stock", stock, "error", err)
				writeErrorDetails(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
			}
			return
		}

		articles := res.Articles
		if articles == nil {
			articles = []models.SummaryRecord{}
		}
		blocked := res.BlockedDomains
		if blocked == nil {
			blocked = []string{}
		}

		writeJSON(w, http.StatusOK, NewsResponse{
			Articles:       articles,
			Source:         res.Source,
			FetchTime:      res.FetchTime.Seconds(),
			BlockedDomains: blocked,
		})
	}
}
