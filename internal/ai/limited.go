package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Compile-time interface check.
var _ Summarizer = (*Limited)(nil)

// Limited caps the number of in-flight calls to an underlying Summarizer
// and retries once in degraded mode when it reports ErrResourceExhausted.
type Limited struct {
	next Summarizer
	sem  *semaphore.Weighted
}

// NewLimited wraps next so at most maxConcurrent calls run at once. A
// non-positive maxConcurrent is treated as 1.
func NewLimited(next Summarizer, maxConcurrent int) *Limited {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limited{
		next: next,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Summarize waits for a free slot, then calls the underlying summarizer.
// The slot is held across the degraded retry.
func (l *Limited) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for summarizer: %w", err)
	}
	defer l.sem.Release(1)

	summary, err := l.next.Summarize(ctx, req)
	if err == nil || !errors.Is(err, ErrResourceExhausted) || req.Degraded {
		return summary, err
	}

	slog.Warn("summarizer exhausted, retrying in degraded mode", "error", err)
	req.Degraded = true
	return l.next.Summarize(ctx, req)
}
