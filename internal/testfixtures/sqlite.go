package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/shiftvote/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool     *sqlite.ConnectionPool
	Roster   *sqlite.RosterRepository
	Ledger   *sqlite.LedgerRepository
	Tally    *sqlite.TallyRepository
	Votes    *sqlite.VoteStore
	Quotas   *sqlite.QuotaRepository
	Admins   *sqlite.AdminRepository
	Sessions *sqlite.SessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a migrated harness over a temporary database
// file. The clock drives every repository timestamp; pass nil for a clock
// fixed at ReferenceTime. Cleanup is registered with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB, clock *Clock) *SQLiteHarness {
	tb.Helper()

	if clock == nil {
		clock = NewClock(time.Time{})
	}
	now := clock.NowFunc()

	path := filepath.Join(tb.TempDir(), "shiftvote.db")
	pool, err := sqlite.Open("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:     pool,
		Roster:   sqlite.NewRosterRepository(pool, now),
		Ledger:   sqlite.NewLedgerRepository(pool),
		Tally:    sqlite.NewTallyRepository(pool, now),
		Votes:    sqlite.NewVoteStore(pool, now),
		Quotas:   sqlite.NewQuotaRepository(pool, now),
		Admins:   sqlite.NewAdminRepository(pool, now),
		Sessions: sqlite.NewSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
