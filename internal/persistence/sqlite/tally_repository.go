package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

// TallyRepository implements persistence.TallyRepository on SQLite. The rows
// here are derived state; the ledger is the source of truth.
type TallyRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewTallyRepository creates a SQLite tally repository. A nil now falls back
// to time.Now.
func NewTallyRepository(pool *ConnectionPool, now func() time.Time) *TallyRepository {
	if now == nil {
		now = time.Now
	}
	return &TallyRepository{pool: pool, now: now}
}

// GetUsed returns the votes used by the employee in the period. A missing row
// reads as zero.
func (r *TallyRepository) GetUsed(ctx context.Context, empID, periodKey string) (int, error) {
	var used int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT votes_used FROM vote_tallies WHERE emp_id = ? AND period_key = ?`,
		empID, periodKey,
	).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, mapError(err)
	}
	return used, nil
}

// Increment raises the count by one, creating the row at 1 when absent.
func (r *TallyRepository) Increment(ctx context.Context, empID, periodKey, category string) error {
	_, err := r.pool.db.ExecContext(ctx, incrementTallySQL,
		empID, periodKey, category, formatTime(r.now().UTC()))
	return mapError(err)
}

const incrementTallySQL = `
	INSERT INTO vote_tallies (emp_id, period_key, category, votes_used, updated_at)
	VALUES (?, ?, ?, 1, ?)
	ON CONFLICT (emp_id, period_key)
	DO UPDATE SET votes_used = votes_used + 1, updated_at = excluded.updated_at`

// ListForPeriod returns every tally row of the period ordered by employee id.
func (r *TallyRepository) ListForPeriod(ctx context.Context, periodKey string) ([]persistence.TallyRow, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT emp_id, period_key, category, votes_used, updated_at
		FROM vote_tallies
		WHERE period_key = ?
		ORDER BY emp_id`,
		periodKey,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tallies := make([]persistence.TallyRow, 0)
	for rows.Next() {
		var (
			row       persistence.TallyRow
			updatedAt string
		)
		if err := rows.Scan(&row.EmpID, &row.PeriodKey, &row.Category, &row.VotesUsed, &updatedAt); err != nil {
			return nil, err
		}
		if row.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		tallies = append(tallies, row)
	}
	return tallies, rows.Err()
}

// ReplaceForPeriod swaps all tally rows of the period in one transaction.
func (r *TallyRepository) ReplaceForPeriod(ctx context.Context, periodKey string, tallies []persistence.TallyRow) error {
	updatedAt := formatTime(r.now().UTC())
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM vote_tallies WHERE period_key = ?`, periodKey); err != nil {
			return mapError(err)
		}
		for _, row := range tallies {
			_, err := tx.Exec(`
				INSERT INTO vote_tallies (emp_id, period_key, category, votes_used, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				row.EmpID, periodKey, row.Category, row.VotesUsed, updatedAt,
			)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}
