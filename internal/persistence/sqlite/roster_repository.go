package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/shiftvote/internal/persistence"
)

// RosterRepository implements persistence.RosterRepository on SQLite.
type RosterRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

// NewRosterRepository creates a SQLite roster repository. A nil now falls
// back to time.Now.
func NewRosterRepository(pool *ConnectionPool, now func() time.Time) *RosterRepository {
	if now == nil {
		now = time.Now
	}
	return &RosterRepository{pool: pool, now: now}
}

// CreateEmployee inserts a roster entry.
func (r *RosterRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.EmpID == "" || employee.PeriodKey == "" {
		return persistence.ErrConstraintViolation
	}

	now := r.now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO employees (emp_id, period_key, name, category, has_voted, last_vote_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		employee.EmpID,
		employee.PeriodKey,
		employee.Name,
		employee.Category,
		employee.HasVoted,
		formatNullTime(employee.LastVoteTime),
		formatTime(employee.CreatedAt),
		formatTime(employee.UpdatedAt),
	)
	return mapError(err)
}

// UpdateEmployee rewrites the mutable fields of a roster entry.
func (r *RosterRepository) UpdateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.EmpID == "" || employee.PeriodKey == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE employees
		SET name = ?, category = ?, has_voted = ?, last_vote_time = ?, updated_at = ?
		WHERE emp_id = ? AND period_key = ?`,
		employee.Name,
		employee.Category,
		employee.HasVoted,
		formatNullTime(employee.LastVoteTime),
		formatTime(r.now().UTC()),
		employee.EmpID,
		employee.PeriodKey,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEmployee retrieves one roster entry.
func (r *RosterRepository) GetEmployee(ctx context.Context, empID, periodKey string) (persistence.Employee, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT emp_id, period_key, name, category, has_voted, last_vote_time, created_at, updated_at
		FROM employees
		WHERE emp_id = ? AND period_key = ?`,
		empID, periodKey,
	)

	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Employee{}, persistence.ErrNotFound
		}
		return persistence.Employee{}, err
	}
	return employee, nil
}

// ListEmployees returns every roster entry of the period ordered by employee
// id.
func (r *RosterRepository) ListEmployees(ctx context.Context, periodKey string) ([]persistence.Employee, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT emp_id, period_key, name, category, has_voted, last_vote_time, created_at, updated_at
		FROM employees
		WHERE period_key = ?
		ORDER BY emp_id`,
		periodKey,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	employees := make([]persistence.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	return employees, rows.Err()
}

// CountEmployees reports how many roster entries exist for the period.
func (r *RosterRepository) CountEmployees(ctx context.Context, periodKey string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees WHERE period_key = ?`, periodKey,
	).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// ResetVotingState clears the voting flags of every roster entry in the
// period.
func (r *RosterRepository) ResetVotingState(ctx context.Context, periodKey string) error {
	_, err := r.pool.db.ExecContext(ctx, `
		UPDATE employees
		SET has_voted = 0, last_vote_time = NULL, updated_at = ?
		WHERE period_key = ?`,
		formatTime(r.now().UTC()), periodKey,
	)
	return mapError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (persistence.Employee, error) {
	var (
		employee     persistence.Employee
		lastVoteTime sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(
		&employee.EmpID,
		&employee.PeriodKey,
		&employee.Name,
		&employee.Category,
		&employee.HasVoted,
		&lastVoteTime,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Employee{}, err
	}

	var err error
	if employee.LastVoteTime, err = parseNullTime(lastVoteTime); err != nil {
		return persistence.Employee{}, err
	}
	if employee.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Employee{}, err
	}
	if employee.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Employee{}, err
	}
	return employee, nil
}
