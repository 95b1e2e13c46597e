// Package blocklist keeps the set of domains that are skipped before any
// article fetch. The set lives in durable storage and is mirrored in memory
// for cheap membership checks during a pipeline run.
package blocklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/hoanghai1803/tickerbrief/internal/models"
	"github.com/hoanghai1803/tickerbrief/internal/storage"
)

// Store is the durable backing of a Blocklist.
type Store interface {
	ListBlockedDomains(ctx context.Context) ([]models.BlockedDomain, error)
	AddBlockedDomain(ctx context.Context, domain string) error
	RemoveBlockedDomain(ctx context.Context, domain string) error
}

// Blocklist is a concurrency-safe set of blocked domains. Writes reach the
// Store before the in-memory set, so the set never holds a domain that was
// not persisted.
type Blocklist struct {
	store   Store
	mu      sync.RWMutex
	domains map[string]struct{}
}

// Load reads the current blocked domains from store and returns a
// Blocklist backed by it.
func Load(ctx context.Context, store Store) (*Blocklist, error) {
	rows, err := store.ListBlockedDomains(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading blocked domains: %w", err)
	}

	domains := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		domains[normalize(row.Domain)] = struct{}{}
	}

	slog.Info("loaded blocked domains", "count", len(domains))
	return &Blocklist{store: store, domains: domains}, nil
}

// Contains reports whether domain is blocked.
func (b *Blocklist) Contains(domain string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.domains[normalize(domain)]
	return ok
}

// Add persists domain and then adds it to the in-memory set. It reports
// whether the domain was newly added.
func (b *Blocklist) Add(ctx context.Context, domain string) (bool, error) {
	domain = normalize(domain)
	if domain == "" {
		return false, errors.New("blocked domain must not be empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.domains[domain]; ok {
		return false, nil
	}
	if err := b.store.AddBlockedDomain(ctx, domain); err != nil {
		return false, err
	}
	b.domains[domain] = struct{}{}
	return true, nil
}

// Remove deletes domain from storage and from the in-memory set. It returns
// storage.ErrNotFound if the domain is not blocked.
func (b *Blocklist) Remove(ctx context.Context, domain string) error {
	domain = normalize(domain)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.domains[domain]; !ok {
		return storage.ErrNotFound
	}
	if err := b.store.RemoveBlockedDomain(ctx, domain); err != nil {
		return err
	}
	delete(b.domains, domain)
	return nil
}

// List returns the blocked domains in sorted order.
func (b *Blocklist) List() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.domains))
	for d := range b.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// DomainOf returns the network location of rawURL, lower-cased: the host
// with any "www." prefix and any explicit port kept, so "host:8443" and
// "host" are separate entries. It returns "" if rawURL has no host.
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return normalize(u.Host)
}

func normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}
