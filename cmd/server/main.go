package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/hoanghai1803/tickerbrief/internal/ai"
	"github.com/hoanghai1803/tickerbrief/internal/api"
	"github.com/hoanghai1803/tickerbrief/internal/blocklist"
	"github.com/hoanghai1803/tickerbrief/internal/cache"
	"github.com/hoanghai1803/tickerbrief/internal/config"
	"github.com/hoanghai1803/tickerbrief/internal/news"
	"github.com/hoanghai1803/tickerbrief/internal/pipeline"
	"github.com/hoanghai1803/tickerbrief/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory")
	flag.Parse()

	// A missing .env is fine; keys may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure data directory exists.
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(filepath.Join(*dataDir, "tickerbrief.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.NewStore(db)

	bl, err := blocklist.Load(ctx, store)
	if err != nil {
		slog.Error("failed to load blocklist", "error", err)
		os.Exit(1)
	}

	resultCache := cache.New(store, cfg.Cache.Freshness())

	summarizer, err := newSummarizer(cfg.AI)
	if err != nil {
		slog.Error("failed to create summarizer", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(
		newSource(cfg.News),
		news.NewFetcher(cfg.Fetch.Timeout()),
		news.NewExtractor(),
		ai.NewLimited(summarizer, cfg.AI.MaxConcurrent),
		bl,
		resultCache,
		pipeline.Config{
			Concurrency: cfg.Fetch.Concurrency,
			RunTimeout:  cfg.Fetch.RunTimeout(),
		},
	)

	// Sweep stale cache entries on a schedule.
	c := cron.New()
	if _, err := c.AddFunc(cfg.Cache.SweepSchedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := resultCache.Sweep(jobCtx); err != nil {
			slog.Error("cache sweep failed", "error", err)
		}
	}); err != nil {
		slog.Error("failed to schedule cache sweep", "error", err)
		os.Exit(1)
	}
	c.Start()
	slog.Info("cache sweep scheduled", "schedule", cfg.Cache.SweepSchedule)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(p, bl, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", "http://"+cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	<-c.Stop().Done()

	slog.Info("server stopped")
}

// newSource builds the configured upstream news search.
func newSource(cfg config.NewsConfig) news.Source {
	if cfg.Source == config.SourceNewsAPI {
		slog.Info("news source configured", "source", "newsapi")
		return news.NewNewsAPIClient(news.NewsAPIConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Language: cfg.Language,
			PageSize: cfg.PageSize,
			Timeout:  cfg.Timeout(),
		})
	}
	slog.Info("news source configured", "source", "google_rss")
	return news.NewGoogleNewsClient(cfg.BaseURL, cfg.Language, cfg.Timeout())
}

// newSummarizer creates the configured summarizer. A remote provider without
// an API key falls back to the local extractive summarizer.
func newSummarizer(cfg config.AIConfig) (ai.Summarizer, error) {
	provider := cfg.Provider
	if provider != "extractive" && cfg.APIKey == "" {
		slog.Warn("no AI provider API key configured, using extractive summaries", "provider", provider)
		provider = "extractive"
	}

	s, err := ai.NewProvider(ai.ProviderConfig{
		Provider:      provider,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		FallbackModel: cfg.FallbackModel,
		BaseURL:       cfg.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("summarizer configured", "provider", provider, "model", cfg.Model)
	return s, nil
}
