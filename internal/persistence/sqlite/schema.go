package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; each entry runs at most once, tracked in
// the schema_migrations table.
var migrations = []struct {
	version int
	name    string
	stmts   []string
}{
	{
		version: 1,
		name:    "core tables",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS employees (
				emp_id         TEXT NOT NULL,
				period_key     TEXT NOT NULL,
				name           TEXT NOT NULL DEFAULT '',
				category       TEXT NOT NULL CHECK (category IN ('2000', '3000')),
				has_voted      INTEGER NOT NULL DEFAULT 0,
				last_vote_time TEXT,
				created_at     TEXT NOT NULL,
				updated_at     TEXT NOT NULL,
				PRIMARY KEY (emp_id, period_key)
			)`,
			`CREATE TABLE IF NOT EXISTS vote_events (
				id              TEXT PRIMARY KEY,
				period_key      TEXT NOT NULL,
				voter_id        TEXT NOT NULL,
				voter_name      TEXT NOT NULL DEFAULT '',
				voter_category  TEXT NOT NULL,
				target_id       TEXT NOT NULL,
				target_name     TEXT NOT NULL DEFAULT '',
				target_category TEXT NOT NULL,
				cast_at         TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_vote_events_period ON vote_events (period_key, cast_at)`,
			`CREATE INDEX IF NOT EXISTS idx_vote_events_voter ON vote_events (period_key, voter_id)`,
			`CREATE TABLE IF NOT EXISTS vote_tallies (
				emp_id     TEXT NOT NULL,
				period_key TEXT NOT NULL,
				category   TEXT NOT NULL,
				votes_used INTEGER NOT NULL DEFAULT 0 CHECK (votes_used >= 0),
				updated_at TEXT NOT NULL,
				PRIMARY KEY (emp_id, period_key)
			)`,
			`CREATE TABLE IF NOT EXISTS quota_settings (
				category   TEXT PRIMARY KEY CHECK (category IN ('2000', '3000')),
				max_votes  INTEGER NOT NULL CHECK (max_votes >= 1),
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "admin accounts and sessions",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS admins (
				id            TEXT PRIMARY KEY,
				display_name  TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id         TEXT PRIMARY KEY,
				admin_id   TEXT NOT NULL REFERENCES admins (id),
				token      TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
		},
	},
}

// Migrate applies pending migrations.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("sqlite: create migrations table: %w", err)
	}

	for _, migration := range migrations {
		applied, err := cp.migrationApplied(ctx, migration.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range migration.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d (%s): %w", migration.version, migration.name, err)
				}
			}
			_, err := tx.Exec(
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, datetime('now'))`,
				migration.version, migration.name,
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (cp *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := cp.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: check migration %d: %w", version, err)
	}
	return count > 0, nil
}
