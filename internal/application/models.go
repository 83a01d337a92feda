package application

import (
	"time"

	"github.com/example/shiftvote/internal/period"
)

// Principal represents the authenticated administrator invoking a service
// method. Voting endpoints are open and carry no principal.
type Principal struct {
	AdminID string
	IsAdmin bool
}

// Category identifies one of the two mutually exclusive shift groups.
// Employees always vote for colleagues of the complementary category.
type Category string

const (
	// CategoryFixed is the fixed-hours shift group (legacy label "RR").
	CategoryFixed Category = "2000"
	// CategoryRotating is the rotating shift group (legacy label 輪班).
	CategoryRotating Category = "3000"
)

// Valid reports whether the category is one of the two canonical values.
func (c Category) Valid() bool {
	return c == CategoryFixed || c == CategoryRotating
}

// Complement returns the category an employee of c votes for.
func (c Category) Complement() Category {
	if c == CategoryFixed {
		return CategoryRotating
	}
	return CategoryFixed
}

// Employee is a roster entry scoped to one accounting period.
type Employee struct {
	EmpID        string
	Name         string
	Category     Category
	PeriodKey    period.Key
	HasVoted     bool
	LastVoteTime *time.Time
}

// EmployeeInput is a normalized roster record ready for import. Category is
// already canonical; raw label mapping happens at the ingestion boundary.
type EmployeeInput struct {
	EmpID    string
	Name     string
	Category Category
}

// VoteEvent is one immutable ledger entry for an accepted (voter, target)
// pair.
type VoteEvent struct {
	ID             string
	PeriodKey      period.Key
	VoterID        string
	VoterName      string
	VoterCategory  Category
	TargetID       string
	TargetName     string
	TargetCategory Category
	CastAt         time.Time
}

// TallyRow is the derived per-voter vote count for one period.
type TallyRow struct {
	EmpID     string
	PeriodKey period.Key
	Category  Category
	VotesUsed int
}

// QuotaStatus answers an eligibility check with the counts needed for user
// display.
type QuotaStatus struct {
	Allowed bool
	Used    int
	Max     int
	Reason  string
}

// SubmitVotesParams carries one vote submission. PeriodKey may be empty, in
// which case the service resolves the current period once for the whole
// request.
type SubmitVotesParams struct {
	VoterID   string
	TargetIDs []string
	PeriodKey string
}

// SubmitVotesResult reports the state after an accepted submission.
type SubmitVotesResult struct {
	PeriodKey period.Key
	VotesUsed int
	MaxVotes  int
}

// EmployeeOverview joins a roster entry with its quota accounting.
type EmployeeOverview struct {
	Employee
	VotesUsed int
	MaxVotes  int
}

// EmployeeStatus answers the per-employee status check.
type EmployeeStatus struct {
	Employee
	QuotaStatus
}

// CandidatesResult lists the complementary-category colleagues an employee
// may vote for, together with the voter's own quota state.
type CandidatesResult struct {
	Voter      EmployeeOverview
	Candidates []Employee
}

// ImportResult reports the outcome of a roster import.
type ImportResult struct {
	PeriodKey period.Key
	Imported  int
	Skipped   bool
}

// RankingEntry is one row of the per-category vote ranking.
type RankingEntry struct {
	EmpID     string
	Name      string
	Category  Category
	VoteCount int
}

// Rankings groups ranking entries by recipient category for one period.
type Rankings struct {
	PeriodKey period.Key
	Fixed     []RankingEntry
	Rotating  []RankingEntry
}

// ParticipationPoint aggregates turnout for one period.
type ParticipationPoint struct {
	PeriodKey     period.Key
	FixedRate     float64
	RotatingRate  float64
	TotalRate     float64
	FixedVotes    int
	RotatingVotes int
	TotalVotes    int
}

// AdminAccount represents a service administrator.
type AdminAccount struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AdminCredentials pairs an account with its stored password hash.
type AdminCredentials struct {
	Account      AdminAccount
	PasswordHash string
}

// Session represents an issued administrator session.
type Session struct {
	ID        string
	AdminID   string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams carries a login attempt.
type AuthenticateParams struct {
	AdminID  string
	Password string
}

// AuthenticateResult reports a successful login.
type AuthenticateResult struct {
	Account AdminAccount
	Session Session
}
