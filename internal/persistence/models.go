package persistence

import "time"

// Employee represents a roster entry scoped to one accounting period.
type Employee struct {
	EmpID        string
	Name         string
	Category     string
	PeriodKey    string
	HasVoted     bool
	LastVoteTime *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VoteEvent is one immutable ledger entry for an accepted (voter, target)
// pair. Events are only ever appended; deletion happens solely through the
// administrative period reset.
type VoteEvent struct {
	ID             string
	PeriodKey      string
	VoterID        string
	VoterName      string
	VoterCategory  string
	TargetID       string
	TargetName     string
	TargetCategory string
	CastAt         time.Time
}

// TallyRow is the derived per-voter vote count for one period. It must always
// equal the number of ledger events with the same voter and period, and must
// be reconstructible from the ledger alone.
type TallyRow struct {
	EmpID     string
	PeriodKey string
	Category  string
	VotesUsed int
	UpdatedAt time.Time
}

// QuotaSetting stores the per-category vote allowance.
type QuotaSetting struct {
	Category  string
	MaxVotes  int
	UpdatedAt time.Time
}

// AdminAccount holds credentials for a service administrator.
type AdminAccount struct {
	ID           string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authenticated administrator session.
type Session struct {
	ID        string
	AdminID   string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
