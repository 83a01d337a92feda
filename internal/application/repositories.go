package application

import (
	"context"
	"time"

	"github.com/example/shiftvote/internal/period"
)

// RosterRepository captures the roster operations needed by the services.
type RosterRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, empID string, key period.Key) (Employee, error)
	ListEmployees(ctx context.Context, key period.Key) ([]Employee, error)
	CountEmployees(ctx context.Context, key period.Key) (int, error)
	ResetVotingState(ctx context.Context, key period.Key) error
}

// LedgerRepository exposes the append-only vote log to the services. The
// normal vote path never appends through this interface; accepted votes go
// through VoteRecorder so the ledger entry and the tally increment commit
// together.
type LedgerRepository interface {
	Scan(ctx context.Context, key period.Key) ([]VoteEvent, error)
	ListPeriods(ctx context.Context) ([]period.Key, error)
	DeletePeriod(ctx context.Context, key period.Key) error
}

// TallyRepository exposes the derived vote counts.
type TallyRepository interface {
	GetUsed(ctx context.Context, empID string, key period.Key) (int, error)
	ListForPeriod(ctx context.Context, key period.Key) ([]TallyRow, error)
	ReplaceForPeriod(ctx context.Context, key period.Key, rows []TallyRow) error
}

// VoteRecorder persists one accepted vote: the ledger append and the tally
// increment must commit atomically. Implementations must never apply one
// without the other, and callers must invoke it exactly once per accepted
// (voter, target) pair.
type VoteRecorder interface {
	RecordVote(ctx context.Context, event VoteEvent) error
}

// QuotaStore exposes the mutable per-category vote allowances. Quotas are
// read at check time so configuration changes take effect on the next check.
type QuotaStore interface {
	GetQuota(ctx context.Context, category Category) (int, error)
	ListQuotas(ctx context.Context) (map[Category]int, error)
	SetQuota(ctx context.Context, category Category, maxVotes int) error
}

// AdminStore exposes administrator account lookup and bootstrap.
type AdminStore interface {
	GetAdminCredentials(ctx context.Context, id string) (AdminCredentials, error)
	CreateAdmin(ctx context.Context, account AdminAccount, passwordHash string) error
}

// SessionStore captures the persistence interactions for issued sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// resolvePeriod maps an optional caller-supplied period string to a concrete
// key. An empty value resolves to "now" exactly once, so every step of the
// enclosing request sees the same period even across a boundary rollover.
func resolvePeriod(policy period.Policy, now func() time.Time, raw string) (period.Key, error) {
	if raw == "" {
		return policy.Current(now()), nil
	}
	return policy.Parse(raw)
}
