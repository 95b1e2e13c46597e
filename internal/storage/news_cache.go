package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hoanghai1803/tickerbrief/internal/models"
)

// GetNewsCache returns the cached result for the given query key regardless
// of its age. Returns nil, ErrNotFound if no row exists.
func (s *Store) GetNewsCache(ctx context.Context, q models.NewsQuery) (*models.CacheEntry, error) {
	var (
		data      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, created_at FROM news_cache
		 WHERE stock_name = ? AND num_articles = ?`,
		q.StockName, q.RequestedCount,
	).Scan(&data, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting news cache for %q: %w", q.StockName, err)
	}

	var records []models.SummaryRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("decoding cached records for %q: %w", q.StockName, err)
	}
	if records == nil {
		records = []models.SummaryRecord{}
	}

	return &models.CacheEntry{
		Query:     q,
		Records:   records,
		CreatedAt: parseTime(createdAt),
	}, nil
}

// UpsertNewsCache stores the entry for its query key, replacing both the
// records and the creation timestamp of any existing row.
func (s *Store) UpsertNewsCache(ctx context.Context, entry *models.CacheEntry) error {
	records := entry.Records
	if records == nil {
		records = []models.SummaryRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding cached records: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO news_cache (stock_name, num_articles, data, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(stock_name, num_articles) DO UPDATE SET
			data       = excluded.data,
			created_at = excluded.created_at`,
		entry.Query.StockName, entry.Query.RequestedCount, string(data),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting news cache for %q: %w", entry.Query.StockName, err)
	}
	return nil
}

// DeleteNewsCacheCreatedAtOrBefore removes every cache row whose creation
// time is at or before cutoff and returns the number of rows removed.
func (s *Store) DeleteNewsCacheCreatedAtOrBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM news_cache WHERE created_at <= ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("deleting stale news cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected for news cache sweep: %w", err)
	}
	return n, nil
}
