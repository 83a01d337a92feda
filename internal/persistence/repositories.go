package persistence

import (
	"context"
	"time"
)

// RosterRepository stores period-scoped employee records.
type RosterRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, empID, periodKey string) (Employee, error)
	ListEmployees(ctx context.Context, periodKey string) ([]Employee, error)
	// CountEmployees reports how many roster entries exist for the period.
	// Used to make imports idempotent per period.
	CountEmployees(ctx context.Context, periodKey string) (int, error)
	// ResetVotingState clears has_voted and last_vote_time for every roster
	// entry of the period.
	ResetVotingState(ctx context.Context, periodKey string) error
}

// LedgerRepository stores the append-only vote event log.
type LedgerRepository interface {
	Append(ctx context.Context, event VoteEvent) error
	// Scan returns every event of the period ordered by cast time then ID.
	Scan(ctx context.Context, periodKey string) ([]VoteEvent, error)
	// ListPeriods returns the keys of every period holding at least one
	// event, ascending.
	ListPeriods(ctx context.Context) ([]string, error)
	// DeletePeriod removes all events of the period (administrative reset).
	DeletePeriod(ctx context.Context, periodKey string) error
}

// TallyRepository stores the derived per-voter vote counts.
type TallyRepository interface {
	// GetUsed returns the votes used by the employee in the period. A missing
	// row is 0, not an error.
	GetUsed(ctx context.Context, empID, periodKey string) (int, error)
	// Increment raises the count by exactly one, creating the row at 1 when
	// absent. Callers must invoke it exactly once per accepted vote event.
	Increment(ctx context.Context, empID, periodKey, category string) error
	ListForPeriod(ctx context.Context, periodKey string) ([]TallyRow, error)
	// ReplaceForPeriod atomically swaps all tally rows of the period. Used by
	// the explicit rebuild and by the administrative reset (empty rows).
	ReplaceForPeriod(ctx context.Context, periodKey string, rows []TallyRow) error
}

// QuotaRepository stores the mutable per-category vote allowances.
type QuotaRepository interface {
	GetQuota(ctx context.Context, category string) (int, error)
	ListQuotas(ctx context.Context) ([]QuotaSetting, error)
	SetQuota(ctx context.Context, category string, maxVotes int) error
}

// AdminRepository stores administrator accounts.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, account AdminAccount) error
	GetAdmin(ctx context.Context, id string) (AdminAccount, error)
}

// SessionRepository stores administrator session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
