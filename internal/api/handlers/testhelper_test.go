package handlers

import (
	"context"
	"testing"

	"github.com/hoanghai1803/tickerbrief/internal/blocklist"
	"github.com/hoanghai1803/tickerbrief/internal/storage"
)

// newTestBlocklist creates a Blocklist over an in-memory SQLite store with
// migrations applied and the given domains already blocked. It registers a
// cleanup function to close the database when the test completes.
func newTestBlocklist(t *testing.T, domains ...string) (*blocklist.Blocklist, *storage.Store) {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	store := storage.NewStore(db)
	ctx := context.Background()
	for _, d := range domains {
		if err := store.AddBlockedDomain(ctx, d); err != nil {
			t.Fatalf("seeding blocked domain: %v", err)
		}
	}

	bl, err := blocklist.Load(ctx, store)
	if err != nil {
		t.Fatalf("loading blocklist: %v", err)
	}
	return bl, store
}
