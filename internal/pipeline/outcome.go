package pipeline

import (
	"context"
	"sync"

	"github.com/hoanghai1803/tickerbrief/internal/models"
)

// skipReason says why a candidate produced no record, or "accepted".
type skipReason string

const (
	accepted       skipReason = "accepted"
	skipBlocked    skipReason = "blocked"
	skipFetch      skipReason = "fetch"
	skipHTTPStatus skipReason = "http_status"
	skipParse      skipReason = "parse"
	skipIrrelevant skipReason = "irrelevant"
	skipSummarize  skipReason = "summarize"
	skipCanceled   skipReason = "canceled"
)

// outcome is the tagged result of processing one candidate.
type outcome struct {
	record *models.SummaryRecord
	reason skipReason
	domain string
	// blocks is set when the candidate hit a permanent domain failure.
	blocks bool
	// newlyBlocked is set when that failure added the domain to the
	// blocklist rather than finding it already there.
	newlyBlocked bool
}

func skip(reason skipReason, domain string) outcome {
	return outcome{reason: reason, domain: domain}
}

// runState is the shared, mutex-guarded state of one accumulation. Outcomes
// arrive in any order; a cursor walks them in candidate rank and appends
// accepted records until the target is met, so the result is the same as
// processing candidates one by one.
type runState struct {
	stockName string
	target    int
	cancel    context.CancelFunc

	// preBlocked is a snapshot of the blocklist taken before the run and is
	// never written.
	preBlocked map[string]bool

	// prevSameDomain[i] is the nearest earlier rank on candidate i's domain,
	// or -1. fetched[i] is closed once rank i is past its fetch, so same-domain
	// fetches run one at a time in rank order.
	prevSameDomain []int
	fetched        []chan struct{}

	mu        sync.Mutex
	outcomes  []outcome
	resolved  []bool
	cursor    int
	records   []models.SummaryRecord
	blockedAt map[string]int // domain -> lowest rank that blocked it this run
	newly     []string
}

func newRunState(stockName string, target int, domains, blocked []string, cancel context.CancelFunc) *runState {
	pre := make(map[string]bool, len(blocked))
	for _, d := range blocked {
		pre[d] = true
	}

	n := len(domains)
	prev := make([]int, n)
	fetched := make([]chan struct{}, n)
	last := make(map[string]int)
	for i, d := range domains {
		prev[i] = -1
		if d != "" {
			if r, ok := last[d]; ok {
				prev[i] = r
			}
			last[d] = i
		}
		fetched[i] = make(chan struct{})
	}

	return &runState{
		stockName:      stockName,
		target:         target,
		cancel:         cancel,
		preBlocked:     pre,
		prevSameDomain: prev,
		fetched:        fetched,
		outcomes:       make([]outcome, n),
		resolved:       make([]bool, n),
		records:        make([]models.SummaryRecord, 0, target),
		blockedAt:      make(map[string]int),
	}
}

// awaitFetchTurn blocks until the previous candidate on rank's domain is
// past its fetch, so a permanent failure there is visible to blockedFor.
func (s *runState) awaitFetchTurn(ctx context.Context, rank int) error {
	prev := s.prevSameDomain[rank]
	if prev < 0 {
		return nil
	}
	select {
	case <-s.fetched[prev]:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fetchDone releases the next candidate on rank's domain. It must be called
// exactly once per started rank.
func (s *runState) fetchDone(rank int) {
	close(s.fetched[rank])
}

// markBlocked records that rank hit a permanent failure on domain. It runs
// before fetchDone so later candidates on the domain see the block.
func (s *runState) markBlocked(domain string, rank int) {
	if domain == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.blockedAt[domain]; !ok || rank < r {
		s.blockedAt[domain] = rank
	}
}

// blockedFor reports whether a candidate at rank on domain must be skipped:
// the domain was blocked before the run, or by an earlier-ranked candidate
// of this run.
func (s *runState) blockedFor(domain string, rank int) bool {
	if domain == "" {
		return false
	}
	if s.preBlocked[domain] {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.blockedAt[domain]
	return ok && r < rank
}

// resolve records the outcome for rank and advances the cursor over every
// contiguous resolved rank. Reaching the target cancels the run.
func (s *runState) resolve(rank int, o outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes[rank] = o
	s.resolved[rank] = true
	if o.blocks && o.domain != "" {
		if r, ok := s.blockedAt[o.domain]; !ok || rank < r {
			s.blockedAt[o.domain] = rank
		}
	}
	if o.newlyBlocked {
		s.newly = append(s.newly, o.domain)
	}

	for s.cursor < len(s.outcomes) && s.resolved[s.cursor] && len(s.records) < s.target {
		cur := s.outcomes[s.cursor]
		if cur.record != nil && !s.blockedEarlier(cur.domain, s.cursor) {
			s.records = append(s.records, *cur.record)
		}
		s.cursor++
	}

	if len(s.records) >= s.target {
		s.cancel()
	}
}

// blockedEarlier is blockedFor without the pre-run snapshot. s.mu must be
// held.
func (s *runState) blockedEarlier(domain string, rank int) bool {
	if domain == "" {
		return false
	}
	r, ok := s.blockedAt[domain]
	return ok && r < rank
}

func (s *runState) result() ([]models.SummaryRecord, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append([]models.SummaryRecord(nil), s.records...)
	if records == nil {
		records = []models.SummaryRecord{}
	}
	newly := append([]string(nil), s.newly...)
	if newly == nil {
		newly = []string{}
	}
	return records, newly
}
