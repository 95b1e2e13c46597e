package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedSummarizer returns errs in order, then succeeds.
type scriptedSummarizer struct {
	mu       sync.Mutex
	errs     []error
	requests []SummarizeRequest
}

func (s *scriptedSummarizer) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return "ok", nil
}

func TestLimited_RetriesOnceDegraded(t *testing.T) {
	next := &scriptedSummarizer{errs: []error{ErrResourceExhausted}}
	l := NewLimited(next, 2)

	got, err := l.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 10})
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if got != "ok" {
		t.Errorf("summary = %q, want %q", got, "ok")
	}
	if len(next.requests) != 2 {
		t.Fatalf("calls = %d, want 2", len(next.requests))
	}
	if next.requests[0].Degraded {
		t.Error("first call should not be degraded")
	}
	if !next.requests[1].Degraded {
		t.Error("retry should be degraded")
	}
}

func TestLimited_GivesUpAfterDegradedRetry(t *testing.T) {
	wrapped := errors.Join(errors.New("status 529"), ErrResourceExhausted)
	next := &scriptedSummarizer{errs: []error{wrapped, wrapped}}
	l := NewLimited(next, 1)

	_, err := l.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 10})
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("expected ErrResourceExhausted, got %v", err)
	}
	if len(next.requests) != 2 {
		t.Errorf("calls = %d, want 2", len(next.requests))
	}
}

func TestLimited_OtherErrorsNotRetried(t *testing.T) {
	next := &scriptedSummarizer{errs: []error{errors.New("bad request")}}
	l := NewLimited(next, 1)

	if _, err := l.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 10}); err == nil {
		t.Fatal("expected error")
	}
	if len(next.requests) != 1 {
		t.Errorf("calls = %d, want 1", len(next.requests))
	}
}

// gateSummarizer blocks until release is closed and records peak concurrency.
type gateSummarizer struct {
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func (g *gateSummarizer) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-g.release
	return "ok", nil
}

func TestLimited_CapsConcurrency(t *testing.T) {
	next := &gateSummarizer{release: make(chan struct{})}
	l := NewLimited(next, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 10})
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()

	if p := next.peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestLimited_CanceledWhileWaiting(t *testing.T) {
	next := &gateSummarizer{release: make(chan struct{})}
	defer close(next.release)
	l := NewLimited(next, 1)

	go l.Summarize(context.Background(), SummarizeRequest{Text: "x", MaxLength: 10})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Summarize(ctx, SummarizeRequest{Text: "x", MaxLength: 10})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
