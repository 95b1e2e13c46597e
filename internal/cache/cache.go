// Package cache serves recent pipeline results per (stock, count) query so a
// repeated request inside the freshness window does not hit upstream again.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hoanghai1803/tickerbrief/internal/models"
	"github.com/hoanghai1803/tickerbrief/internal/storage"
)

// DefaultFreshness is how long a cached result is served.
const DefaultFreshness = 24 * time.Hour

// Store is the durable backing of a Cache.
type Store interface {
	GetNewsCache(ctx context.Context, q models.NewsQuery) (*models.CacheEntry, error)
	UpsertNewsCache(ctx context.Context, entry *models.CacheEntry) error
	DeleteNewsCacheCreatedAtOrBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cache wraps a Store with a freshness window. Get and Sweep share one
// staleness rule: an entry is stale once now - createdAt >= window.
type Cache struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now as the cache's clock.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. A non-positive window falls back to DefaultFreshness.
func New(store Store, window time.Duration, opts ...Option) *Cache {
	if window <= 0 {
		window = DefaultFreshness
	}
	c := &Cache{store: store, window: window, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the freshness window.
func (c *Cache) Window() time.Duration {
	return c.window
}

// Stale reports whether an entry created at createdAt is no longer served
// at time now.
func (c *Cache) Stale(createdAt, now time.Time) bool {
	return now.Sub(createdAt) >= c.window
}

// Get returns the fresh entry for q, or nil if there is none.
func (c *Cache) Get(ctx context.Context, q models.NewsQuery) (*models.CacheEntry, error) {
	entry, err := c.store.GetNewsCache(ctx, q)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if c.Stale(entry.CreatedAt, c.now()) {
		return nil, nil
	}
	return entry, nil
}

// Put stores records for q stamped with the current time, replacing any
// previous entry for the same key.
func (c *Cache) Put(ctx context.Context, q models.NewsQuery, records []models.SummaryRecord) error {
	entry := &models.CacheEntry{
		Query:     q,
		Records:   records,
		CreatedAt: c.now(),
	}
	if err := c.store.UpsertNewsCache(ctx, entry); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Sweep deletes every entry Get would consider stale and returns how many
// were removed.
func (c *Cache) Sweep(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.window)
	n, err := c.store.DeleteNewsCacheCreatedAtOrBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping cache: %w", err)
	}
	slog.Info("swept news cache", "removed", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	return n, nil
}
