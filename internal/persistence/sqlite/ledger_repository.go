package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/shiftvote/internal/persistence"
)

// LedgerRepository implements persistence.LedgerRepository on SQLite. Events
// are append-only; the sole deletion path is the administrative period reset.
type LedgerRepository struct {
	pool *ConnectionPool
}

// NewLedgerRepository creates a SQLite ledger repository.
func NewLedgerRepository(pool *ConnectionPool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append inserts one vote event.
func (r *LedgerRepository) Append(ctx context.Context, event persistence.VoteEvent) error {
	if event.ID == "" || event.PeriodKey == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.db.ExecContext(ctx, insertVoteEventSQL, voteEventArgs(event)...)
	return mapError(err)
}

const insertVoteEventSQL = `
	INSERT INTO vote_events (id, period_key, voter_id, voter_name, voter_category, target_id, target_name, target_category, cast_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func voteEventArgs(event persistence.VoteEvent) []any {
	return []any{
		event.ID,
		event.PeriodKey,
		event.VoterID,
		event.VoterName,
		event.VoterCategory,
		event.TargetID,
		event.TargetName,
		event.TargetCategory,
		formatTime(event.CastAt),
	}
}

// Scan returns every event of the period ordered by cast time then id.
func (r *LedgerRepository) Scan(ctx context.Context, periodKey string) ([]persistence.VoteEvent, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, period_key, voter_id, voter_name, voter_category, target_id, target_name, target_category, cast_at
		FROM vote_events
		WHERE period_key = ?
		ORDER BY cast_at, id`,
		periodKey,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	events := make([]persistence.VoteEvent, 0)
	for rows.Next() {
		event, err := scanVoteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ListPeriods returns every period key holding at least one event, ascending.
func (r *LedgerRepository) ListPeriods(ctx context.Context) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT DISTINCT period_key FROM vote_events ORDER BY period_key`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// DeletePeriod removes every event of the period.
func (r *LedgerRepository) DeletePeriod(ctx context.Context, periodKey string) error {
	_, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM vote_events WHERE period_key = ?`, periodKey)
	return mapError(err)
}

func scanVoteEvent(rows *sql.Rows) (persistence.VoteEvent, error) {
	var (
		event  persistence.VoteEvent
		castAt string
	)
	if err := rows.Scan(
		&event.ID,
		&event.PeriodKey,
		&event.VoterID,
		&event.VoterName,
		&event.VoterCategory,
		&event.TargetID,
		&event.TargetName,
		&event.TargetCategory,
		&castAt,
	); err != nil {
		return persistence.VoteEvent{}, err
	}

	var err error
	if event.CastAt, err = parseTime(castAt); err != nil {
		return persistence.VoteEvent{}, err
	}
	return event, nil
}
