package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

// QuotaRepository implements persistence.QuotaRepository on SQLite.
type QuotaRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewQuotaRepository creates a SQLite quota repository. A nil now falls back
// to time.Now.
func NewQuotaRepository(pool *ConnectionPool, now func() time.Time) *QuotaRepository {
	if now == nil {
		now = time.Now
	}
	return &QuotaRepository{pool: pool, now: now}
}

// GetQuota returns the allowance configured for the category.
func (r *QuotaRepository) GetQuota(ctx context.Context, category string) (int, error) {
	var maxVotes int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT max_votes FROM quota_settings WHERE category = ?`, category,
	).Scan(&maxVotes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, persistence.ErrNotFound
		}
		return 0, mapError(err)
	}
	return maxVotes, nil
}

// ListQuotas returns every configured allowance.
func (r *QuotaRepository) ListQuotas(ctx context.Context) ([]persistence.QuotaSetting, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT category, max_votes, updated_at FROM quota_settings ORDER BY category`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	settings := make([]persistence.QuotaSetting, 0)
	for rows.Next() {
		var (
			setting   persistence.QuotaSetting
			updatedAt string
		)
		if err := rows.Scan(&setting.Category, &setting.MaxVotes, &updatedAt); err != nil {
			return nil, err
		}
		if setting.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	return settings, rows.Err()
}

// SetQuota upserts the allowance for the category.
func (r *QuotaRepository) SetQuota(ctx context.Context, category string, maxVotes int) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO quota_settings (category, max_votes, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (category)
		DO UPDATE SET max_votes = excluded.max_votes, updated_at = excluded.updated_at`,
		category, maxVotes, formatTime(r.now().UTC()),
	)
	return mapError(err)
}
