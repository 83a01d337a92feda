package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository on SQLite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession inserts a session and returns it.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" || session.AdminID == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO sessions (id, admin_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.AdminID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatNullTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return session, nil
}

// GetSession retrieves a session by token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, admin_id, token, expires_at, created_at, revoked_at
		FROM sessions
		WHERE token = ?`,
		token,
	)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, err
	}
	return session, nil
}

// RevokeSession stamps the session's revocation time and returns the updated
// record.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		formatTime(revokedAt), token,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, err
	}
	if affected == 0 {
		// Either unknown or already revoked; distinguish via lookup.
		session, err := r.GetSession(ctx, token)
		if err != nil {
			return persistence.Session{}, err
		}
		return session, nil
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the
// reference time.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference))
	return mapError(err)
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session   persistence.Session
		expiresAt string
		createdAt string
		revokedAt sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.AdminID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&revokedAt,
	); err != nil {
		return persistence.Session{}, err
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseNullTime(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
