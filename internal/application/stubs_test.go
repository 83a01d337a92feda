package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/shiftvote/internal/period"
)

// memStore is an in-memory implementation of every persistence seam the
// services consume. It mirrors the transactional contract of the real store:
// RecordVote applies the ledger append and the tally increment under one
// lock.
type memStore struct {
	mu        sync.Mutex
	employees map[string]Employee
	events    []VoteEvent
	tallies   map[string]int
	quotas    map[Category]int
	admins    map[string]AdminCredentials
	sessions  map[string]Session

	recordErr error
	failAfter int
	recorded  int
}

func newMemStore() *memStore {
	return &memStore{
		employees: make(map[string]Employee),
		tallies:   make(map[string]int),
		quotas:    map[Category]int{CategoryFixed: 3, CategoryRotating: 2},
		admins:    make(map[string]AdminCredentials),
		sessions:  make(map[string]Session),
		failAfter: -1,
	}
}

func employeeKey(empID string, key period.Key) string {
	return fmt.Sprintf("%s|%s", empID, key)
}

func (m *memStore) seedEmployee(empID, name string, category Category, key period.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[employeeKey(empID, key)] = Employee{
		EmpID:     empID,
		Name:      name,
		Category:  category,
		PeriodKey: key,
	}
}

func (m *memStore) CreateEmployee(ctx context.Context, employee Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := employeeKey(employee.EmpID, employee.PeriodKey)
	if _, ok := m.employees[k]; ok {
		return fmt.Errorf("employee %s already exists", employee.EmpID)
	}
	m.employees[k] = employee
	return nil
}

func (m *memStore) UpdateEmployee(ctx context.Context, employee Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := employeeKey(employee.EmpID, employee.PeriodKey)
	if _, ok := m.employees[k]; !ok {
		return ErrNotFound
	}
	m.employees[k] = employee
	return nil
}

func (m *memStore) GetEmployee(ctx context.Context, empID string, key period.Key) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	employee, ok := m.employees[employeeKey(empID, key)]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return employee, nil
}

func (m *memStore) ListEmployees(ctx context.Context, key period.Key) ([]Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Employee, 0)
	for _, employee := range m.employees {
		if employee.PeriodKey == key {
			out = append(out, employee)
		}
	}
	return out, nil
}

func (m *memStore) CountEmployees(ctx context.Context, key period.Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, employee := range m.employees {
		if employee.PeriodKey == key {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ResetVotingState(ctx context.Context, key period.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, employee := range m.employees {
		if employee.PeriodKey == key {
			employee.HasVoted = false
			employee.LastVoteTime = nil
			m.employees[k] = employee
		}
	}
	return nil
}

func (m *memStore) Scan(ctx context.Context, key period.Key) ([]VoteEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]VoteEvent, 0)
	for _, event := range m.events {
		if event.PeriodKey == key {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *memStore) ListPeriods(ctx context.Context) ([]period.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[period.Key]bool)
	out := make([]period.Key, 0)
	for _, event := range m.events {
		if !seen[event.PeriodKey] {
			seen[event.PeriodKey] = true
			out = append(out, event.PeriodKey)
		}
	}
	return out, nil
}

func (m *memStore) DeletePeriod(ctx context.Context, key period.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, event := range m.events {
		if event.PeriodKey != key {
			kept = append(kept, event)
		}
	}
	m.events = kept
	return nil
}

func (m *memStore) GetUsed(ctx context.Context, empID string, key period.Key) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tallies[employeeKey(empID, key)], nil
}

func (m *memStore) ListForPeriod(ctx context.Context, key period.Key) ([]TallyRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TallyRow, 0)
	for _, employee := range m.employees {
		if employee.PeriodKey != key {
			continue
		}
		used := m.tallies[employeeKey(employee.EmpID, key)]
		if used > 0 {
			out = append(out, TallyRow{
				EmpID:     employee.EmpID,
				PeriodKey: key,
				Category:  employee.Category,
				VotesUsed: used,
			})
		}
	}
	return out, nil
}

func (m *memStore) ReplaceForPeriod(ctx context.Context, key period.Key, rows []TallyRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	suffix := "|" + string(key)
	for k := range m.tallies {
		if len(k) >= len(suffix) && k[len(k)-len(suffix):] == suffix {
			delete(m.tallies, k)
		}
	}
	for _, row := range rows {
		m.tallies[employeeKey(row.EmpID, key)] = row.VotesUsed
	}
	return nil
}

func (m *memStore) RecordVote(ctx context.Context, event VoteEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	if m.failAfter >= 0 && m.recorded >= m.failAfter {
		return fmt.Errorf("storage failure")
	}
	m.events = append(m.events, event)
	m.tallies[employeeKey(event.VoterID, event.PeriodKey)]++
	m.recorded++
	return nil
}

func (m *memStore) GetQuota(ctx context.Context, category Category) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max, ok := m.quotas[category]
	if !ok {
		return 0, fmt.Errorf("no quota for category %s", category)
	}
	return max, nil
}

func (m *memStore) ListQuotas(ctx context.Context) (map[Category]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Category]int, len(m.quotas))
	for category, max := range m.quotas {
		out[category] = max
	}
	return out, nil
}

func (m *memStore) SetQuota(ctx context.Context, category Category, maxVotes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotas[category] = maxVotes
	return nil
}

func (m *memStore) GetAdminCredentials(ctx context.Context, id string) (AdminCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	credentials, ok := m.admins[id]
	if !ok {
		return AdminCredentials{}, ErrNotFound
	}
	return credentials, nil
}

func (m *memStore) CreateAdmin(ctx context.Context, account AdminAccount, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[account.ID]; ok {
		return fmt.Errorf("admin %s already exists", account.ID)
	}
	m.admins[account.ID] = AdminCredentials{Account: account, PasswordHash: passwordHash}
	return nil
}

func (m *memStore) CreateSession(ctx context.Context, session Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Token] = session
	return session, nil
}

func (m *memStore) GetSession(ctx context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (m *memStore) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	m.sessions[token] = session
	return session, nil
}

func (m *memStore) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, session := range m.sessions {
		if !reference.Before(session.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *memStore) eventCount(key period.Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, event := range m.events {
		if event.PeriodKey == key {
			count++
		}
	}
	return count
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
