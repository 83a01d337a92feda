package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/shiftvote/internal/application"
	"github.com/example/shiftvote/internal/period"
	"github.com/example/shiftvote/internal/persistence"
)

var (
	employeeCounter uint64
	voteCounter     uint64
	adminCounter    uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferencePeriod is the month key that ReferenceTime falls into.
const ReferencePeriod period.Key = "2025-06"

// --------------------------- Employee fixtures ---------------------------

// EmployeeFixture is a deterministic roster entry that can be materialised
// for application or persistence tests.
type EmployeeFixture struct {
	EmpID        string
	Name         string
	Category     application.Category
	PeriodKey    period.Key
	HasVoted     bool
	LastVoteTime *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmployeeOption configures the generated employee fixture.
type EmployeeOption func(*EmployeeFixture)

// NewEmployeeFixture returns a deterministic employee fixture with optional
// overrides. Generated employees alternate between the two shift categories.
func NewEmployeeFixture(opts ...EmployeeOption) EmployeeFixture {
	idx := atomic.AddUint64(&employeeCounter, 1)
	category := application.CategoryFixed
	if idx%2 == 0 {
		category = application.CategoryRotating
	}
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EmployeeFixture{
		EmpID:     fmt.Sprintf("E%03d", idx),
		Name:      fmt.Sprintf("員工 %03d", idx),
		Category:  category,
		PeriodKey: ReferencePeriod,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEmpID overrides the generated employee ID.
func WithEmpID(id string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.EmpID = id
	}
}

// WithEmployeeName overrides the generated display name.
func WithEmployeeName(name string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Name = name
	}
}

// WithCategory sets the employee's shift category.
func WithCategory(category application.Category) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Category = category
	}
}

// WithPeriod scopes the employee to the given period.
func WithPeriod(key period.Key) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.PeriodKey = key
	}
}

// WithVoted marks the employee as having voted at the given instant.
func WithVoted(at time.Time) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.HasVoted = true
		f.LastVoteTime = &at
	}
}

// Application materialises the fixture as an application model.
func (f EmployeeFixture) Application() application.Employee {
	return application.Employee{
		EmpID:        f.EmpID,
		Name:         f.Name,
		Category:     f.Category,
		PeriodKey:    f.PeriodKey,
		HasVoted:     f.HasVoted,
		LastVoteTime: cloneTime(f.LastVoteTime),
	}
}

// Persistence materialises the fixture as a persistence model.
func (f EmployeeFixture) Persistence() persistence.Employee {
	return persistence.Employee{
		EmpID:        f.EmpID,
		Name:         f.Name,
		Category:     string(f.Category),
		PeriodKey:    string(f.PeriodKey),
		HasVoted:     f.HasVoted,
		LastVoteTime: cloneTime(f.LastVoteTime),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input materialises the fixture as a roster import record.
func (f EmployeeFixture) Input() application.EmployeeInput {
	return application.EmployeeInput{
		EmpID:    f.EmpID,
		Name:     f.Name,
		Category: f.Category,
	}
}

// --------------------------- Vote event fixtures -------------------------

// VoteEventFixture is a deterministic ledger entry.
type VoteEventFixture struct {
	ID             string
	PeriodKey      period.Key
	VoterID        string
	VoterName      string
	VoterCategory  application.Category
	TargetID       string
	TargetName     string
	TargetCategory application.Category
	CastAt         time.Time
}

// VoteEventOption configures the generated vote event fixture.
type VoteEventOption func(*VoteEventFixture)

// NewVoteEventFixture returns a deterministic cross-category vote event with
// optional overrides.
func NewVoteEventFixture(opts ...VoteEventOption) VoteEventFixture {
	idx := atomic.AddUint64(&voteCounter, 1)
	fixture := VoteEventFixture{
		ID:             fmt.Sprintf("vote-%03d", idx),
		PeriodKey:      ReferencePeriod,
		VoterID:        fmt.Sprintf("F%03d", idx),
		VoterName:      fmt.Sprintf("投票人 %03d", idx),
		VoterCategory:  application.CategoryFixed,
		TargetID:       fmt.Sprintf("R%03d", idx),
		TargetName:     fmt.Sprintf("被投票人 %03d", idx),
		TargetCategory: application.CategoryRotating,
		CastAt:         referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithVoteID overrides the generated event ID.
func WithVoteID(id string) VoteEventOption {
	return func(f *VoteEventFixture) {
		f.ID = id
	}
}

// WithVotePeriod scopes the event to the given period.
func WithVotePeriod(key period.Key) VoteEventOption {
	return func(f *VoteEventFixture) {
		f.PeriodKey = key
	}
}

// WithVoter sets the voter side of the event.
func WithVoter(empID, name string, category application.Category) VoteEventOption {
	return func(f *VoteEventFixture) {
		f.VoterID = empID
		f.VoterName = name
		f.VoterCategory = category
	}
}

// WithTarget sets the recipient side of the event.
func WithTarget(empID, name string, category application.Category) VoteEventOption {
	return func(f *VoteEventFixture) {
		f.TargetID = empID
		f.TargetName = name
		f.TargetCategory = category
	}
}

// WithCastAt sets the event timestamp.
func WithCastAt(at time.Time) VoteEventOption {
	return func(f *VoteEventFixture) {
		f.CastAt = at
	}
}

// Application materialises the fixture as an application model.
func (f VoteEventFixture) Application() application.VoteEvent {
	return application.VoteEvent{
		ID:             f.ID,
		PeriodKey:      f.PeriodKey,
		VoterID:        f.VoterID,
		VoterName:      f.VoterName,
		VoterCategory:  f.VoterCategory,
		TargetID:       f.TargetID,
		TargetName:     f.TargetName,
		TargetCategory: f.TargetCategory,
		CastAt:         f.CastAt,
	}
}

// Persistence materialises the fixture as a persistence model.
func (f VoteEventFixture) Persistence() persistence.VoteEvent {
	return persistence.VoteEvent{
		ID:             f.ID,
		PeriodKey:      string(f.PeriodKey),
		VoterID:        f.VoterID,
		VoterName:      f.VoterName,
		VoterCategory:  string(f.VoterCategory),
		TargetID:       f.TargetID,
		TargetName:     f.TargetName,
		TargetCategory: string(f.TargetCategory),
		CastAt:         f.CastAt,
	}
}

// ----------------------------- Admin fixtures ----------------------------

// AdminFixture is a deterministic administrator account.
type AdminFixture struct {
	ID           string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminOption configures the generated admin fixture.
type AdminOption func(*AdminFixture)

// NewAdminFixture returns a deterministic administrator fixture with optional
// overrides.
func NewAdminFixture(opts ...AdminOption) AdminFixture {
	idx := atomic.AddUint64(&adminCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := AdminFixture{
		ID:           fmt.Sprintf("admin-%03d", idx),
		DisplayName:  fmt.Sprintf("Admin %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAdminID overrides the generated account ID.
func WithAdminID(id string) AdminOption {
	return func(f *AdminFixture) {
		f.ID = id
	}
}

// WithAdminPasswordHash overrides the generated password hash.
func WithAdminPasswordHash(hash string) AdminOption {
	return func(f *AdminFixture) {
		f.PasswordHash = hash
	}
}

// Application materialises the fixture as an application model.
func (f AdminFixture) Application() application.AdminAccount {
	return application.AdminAccount{
		ID:          f.ID,
		DisplayName: f.DisplayName,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence materialises the fixture as a persistence model.
func (f AdminFixture) Persistence() persistence.AdminAccount {
	return persistence.AdminAccount{
		ID:           f.ID,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Principal materialises the fixture as an authenticated principal.
func (f AdminFixture) Principal() application.Principal {
	return application.Principal{AdminID: f.ID, IsAdmin: true}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture is a deterministic administrator session.
type SessionFixture struct {
	ID        string
	AdminID   string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture that expires 24
// hours after ReferenceTime, with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		AdminID:   fmt.Sprintf("admin-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionAdmin binds the session to the given administrator.
func WithSessionAdmin(adminID string) SessionOption {
	return func(f *SessionFixture) {
		f.AdminID = adminID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry sets the session expiry instant.
func WithSessionExpiry(at time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = at
	}
}

// WithSessionRevoked marks the session as revoked at the given instant.
func WithSessionRevoked(at time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &at
	}
}

// Application materialises the fixture as an application model.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		AdminID:   f.AdminID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: cloneTime(f.RevokedAt),
	}
}

// Persistence materialises the fixture as a persistence model.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		AdminID:   f.AdminID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		RevokedAt: cloneTime(f.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
