package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

// VoteStore persists accepted votes. The ledger append and the tally
// increment commit in one transaction, so the two tables can never diverge
// by a partial write. This is the only write path for vote events.
type VoteStore struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewVoteStore creates a SQLite vote store. A nil now falls back to time.Now.
func NewVoteStore(pool *ConnectionPool, now func() time.Time) *VoteStore {
	if now == nil {
		now = time.Now
	}
	return &VoteStore{pool: pool, now: now}
}

// RecordVote appends the event and increments the voter's tally atomically.
func (s *VoteStore) RecordVote(ctx context.Context, event persistence.VoteEvent) error {
	if event.ID == "" || event.PeriodKey == "" || event.VoterID == "" {
		return persistence.ErrConstraintViolation
	}

	updatedAt := formatTime(s.now().UTC())
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(insertVoteEventSQL, voteEventArgs(event)...); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(incrementTallySQL,
			event.VoterID, event.PeriodKey, event.VoterCategory, updatedAt); err != nil {
			return mapError(err)
		}
		return nil
	})
}
