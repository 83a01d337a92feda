package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

// AdminRepository implements persistence.AdminRepository on SQLite.
type AdminRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewAdminRepository creates a SQLite admin repository. A nil now falls back
// to time.Now.
func NewAdminRepository(pool *ConnectionPool, now func() time.Time) *AdminRepository {
	if now == nil {
		now = time.Now
	}
	return &AdminRepository{pool: pool, now: now}
}

// CreateAdmin inserts an administrator account.
func (r *AdminRepository) CreateAdmin(ctx context.Context, account persistence.AdminAccount) error {
	if account.ID == "" || account.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	now := r.now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO admins (id, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		account.ID,
		account.DisplayName,
		account.PasswordHash,
		formatTime(account.CreatedAt),
		formatTime(account.UpdatedAt),
	)
	return mapError(err)
}

// GetAdmin retrieves an administrator account by id.
func (r *AdminRepository) GetAdmin(ctx context.Context, id string) (persistence.AdminAccount, error) {
	var (
		account   persistence.AdminAccount
		createdAt string
		updatedAt string
	)
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, display_name, password_hash, created_at, updated_at
		FROM admins
		WHERE id = ?`,
		id,
	).Scan(&account.ID, &account.DisplayName, &account.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AdminAccount{}, persistence.ErrNotFound
		}
		return persistence.AdminAccount{}, mapError(err)
	}

	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AdminAccount{}, err
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.AdminAccount{}, err
	}
	return account, nil
}
