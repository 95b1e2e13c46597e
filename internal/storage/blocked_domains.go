package storage

import (
	"context"
	"fmt"

	"github.com/hoanghai1803/tickerbrief/internal/models"
)

// ListBlockedDomains returns every blocked domain ordered by domain name.
func (s *Store) ListBlockedDomains(ctx context.Context) ([]models.BlockedDomain, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, domain, created_at FROM blocked_domains ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("querying blocked domains: %w", err)
	}
	defer rows.Close()

	var domains []models.BlockedDomain
	for rows.Next() {
		var (
			d         models.BlockedDomain
			createdAt string
		)
		if err := rows.Scan(&d.ID, &d.Domain, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning blocked domain row: %w", err)
		}
		d.CreatedAt = parseTime(createdAt)
		domains = append(domains, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blocked domain rows: %w", err)
	}

	// Return empty slice instead of nil for consistent JSON serialization.
	if domains == nil {
		domains = []models.BlockedDomain{}
	}

	return domains, nil
}

// AddBlockedDomain inserts a domain into the blocked set. Adding a domain
// that is already blocked is a no-op.
func (s *Store) AddBlockedDomain(ctx context.Context, domain string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_domains (domain) VALUES (?)
		 ON CONFLICT(domain) DO NOTHING`, domain)
	if err != nil {
		return fmt.Errorf("adding blocked domain %q: %w", domain, err)
	}
	return nil
}

// RemoveBlockedDomain deletes a domain from the blocked set.
// It returns ErrNotFound if the domain was not blocked.
func (s *Store) RemoveBlockedDomain(ctx context.Context, domain string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM blocked_domains WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("removing blocked domain %q: %w", domain, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for domain %q: %w", domain, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
