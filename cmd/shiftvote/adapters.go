package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/shiftvote/internal/application"
	"github.com/example/shiftvote/internal/period"
	"github.com/example/shiftvote/internal/persistence"
)

// The application services speak period.Key and Category; the persistence
// layer speaks plain strings. The adapters below translate the models and map
// the persistence sentinels onto the application ones.

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return application.ErrNotFound
	}
	return err
}

type rosterAdapter struct {
	repo persistence.RosterRepository
}

func newRosterAdapter(repo persistence.RosterRepository) *rosterAdapter {
	return &rosterAdapter{repo: repo}
}

func (a *rosterAdapter) CreateEmployee(ctx context.Context, employee application.Employee) error {
	return mapStoreError(a.repo.CreateEmployee(ctx, toPersistenceEmployee(employee)))
}

func (a *rosterAdapter) UpdateEmployee(ctx context.Context, employee application.Employee) error {
	return mapStoreError(a.repo.UpdateEmployee(ctx, toPersistenceEmployee(employee)))
}

func (a *rosterAdapter) GetEmployee(ctx context.Context, empID string, key period.Key) (application.Employee, error) {
	stored, err := a.repo.GetEmployee(ctx, empID, string(key))
	if err != nil {
		return application.Employee{}, mapStoreError(err)
	}
	return toApplicationEmployee(stored), nil
}

func (a *rosterAdapter) ListEmployees(ctx context.Context, key period.Key) ([]application.Employee, error) {
	models, err := a.repo.ListEmployees(ctx, string(key))
	if err != nil {
		return nil, mapStoreError(err)
	}
	employees := make([]application.Employee, 0, len(models))
	for _, model := range models {
		employees = append(employees, toApplicationEmployee(model))
	}
	return employees, nil
}

func (a *rosterAdapter) CountEmployees(ctx context.Context, key period.Key) (int, error) {
	count, err := a.repo.CountEmployees(ctx, string(key))
	return count, mapStoreError(err)
}

func (a *rosterAdapter) ResetVotingState(ctx context.Context, key period.Key) error {
	return mapStoreError(a.repo.ResetVotingState(ctx, string(key)))
}

type ledgerAdapter struct {
	repo persistence.LedgerRepository
}

func newLedgerAdapter(repo persistence.LedgerRepository) *ledgerAdapter {
	return &ledgerAdapter{repo: repo}
}

func (a *ledgerAdapter) Scan(ctx context.Context, key period.Key) ([]application.VoteEvent, error) {
	models, err := a.repo.Scan(ctx, string(key))
	if err != nil {
		return nil, mapStoreError(err)
	}
	events := make([]application.VoteEvent, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationVoteEvent(model))
	}
	return events, nil
}

func (a *ledgerAdapter) ListPeriods(ctx context.Context) ([]period.Key, error) {
	raw, err := a.repo.ListPeriods(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	keys := make([]period.Key, 0, len(raw))
	for _, value := range raw {
		keys = append(keys, period.Key(value))
	}
	return keys, nil
}

func (a *ledgerAdapter) DeletePeriod(ctx context.Context, key period.Key) error {
	return mapStoreError(a.repo.DeletePeriod(ctx, string(key)))
}

type tallyAdapter struct {
	repo persistence.TallyRepository
}

func newTallyAdapter(repo persistence.TallyRepository) *tallyAdapter {
	return &tallyAdapter{repo: repo}
}

func (a *tallyAdapter) GetUsed(ctx context.Context, empID string, key period.Key) (int, error) {
	used, err := a.repo.GetUsed(ctx, empID, string(key))
	return used, mapStoreError(err)
}

func (a *tallyAdapter) ListForPeriod(ctx context.Context, key period.Key) ([]application.TallyRow, error) {
	models, err := a.repo.ListForPeriod(ctx, string(key))
	if err != nil {
		return nil, mapStoreError(err)
	}
	rows := make([]application.TallyRow, 0, len(models))
	for _, model := range models {
		rows = append(rows, application.TallyRow{
			EmpID:     model.EmpID,
			PeriodKey: period.Key(model.PeriodKey),
			Category:  application.Category(model.Category),
			VotesUsed: model.VotesUsed,
		})
	}
	return rows, nil
}

func (a *tallyAdapter) ReplaceForPeriod(ctx context.Context, key period.Key, rows []application.TallyRow) error {
	models := make([]persistence.TallyRow, 0, len(rows))
	for _, row := range rows {
		models = append(models, persistence.TallyRow{
			EmpID:     row.EmpID,
			PeriodKey: string(key),
			Category:  string(row.Category),
			VotesUsed: row.VotesUsed,
		})
	}
	return mapStoreError(a.repo.ReplaceForPeriod(ctx, string(key), models))
}

type voteRecorder interface {
	RecordVote(ctx context.Context, event persistence.VoteEvent) error
}

type voteRecorderAdapter struct {
	store voteRecorder
}

func newVoteRecorderAdapter(store voteRecorder) *voteRecorderAdapter {
	return &voteRecorderAdapter{store: store}
}

func (a *voteRecorderAdapter) RecordVote(ctx context.Context, event application.VoteEvent) error {
	return mapStoreError(a.store.RecordVote(ctx, persistence.VoteEvent{
		ID:             event.ID,
		PeriodKey:      string(event.PeriodKey),
		VoterID:        event.VoterID,
		VoterName:      event.VoterName,
		VoterCategory:  string(event.VoterCategory),
		TargetID:       event.TargetID,
		TargetName:     event.TargetName,
		TargetCategory: string(event.TargetCategory),
		CastAt:         event.CastAt,
	}))
}

type quotaAdapter struct {
	repo persistence.QuotaRepository
}

func newQuotaAdapter(repo persistence.QuotaRepository) *quotaAdapter {
	return &quotaAdapter{repo: repo}
}

func (a *quotaAdapter) GetQuota(ctx context.Context, category application.Category) (int, error) {
	quota, err := a.repo.GetQuota(ctx, string(category))
	return quota, mapStoreError(err)
}

func (a *quotaAdapter) ListQuotas(ctx context.Context) (map[application.Category]int, error) {
	settings, err := a.repo.ListQuotas(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	quotas := make(map[application.Category]int, len(settings))
	for _, setting := range settings {
		quotas[application.Category(setting.Category)] = setting.MaxVotes
	}
	return quotas, nil
}

func (a *quotaAdapter) SetQuota(ctx context.Context, category application.Category, maxVotes int) error {
	return mapStoreError(a.repo.SetQuota(ctx, string(category), maxVotes))
}

type adminStoreAdapter struct {
	repo persistence.AdminRepository
}

func newAdminStoreAdapter(repo persistence.AdminRepository) *adminStoreAdapter {
	return &adminStoreAdapter{repo: repo}
}

func (a *adminStoreAdapter) GetAdminCredentials(ctx context.Context, id string) (application.AdminCredentials, error) {
	stored, err := a.repo.GetAdmin(ctx, id)
	if err != nil {
		return application.AdminCredentials{}, mapStoreError(err)
	}
	return application.AdminCredentials{
		Account: application.AdminAccount{
			ID:          stored.ID,
			DisplayName: stored.DisplayName,
			CreatedAt:   stored.CreatedAt,
			UpdatedAt:   stored.UpdatedAt,
		},
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *adminStoreAdapter) CreateAdmin(ctx context.Context, account application.AdminAccount, passwordHash string) error {
	return mapStoreError(a.repo.CreateAdmin(ctx, persistence.AdminAccount{
		ID:           account.ID,
		DisplayName:  account.DisplayName,
		PasswordHash: passwordHash,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}))
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStoreError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationEmployee(model persistence.Employee) application.Employee {
	return application.Employee{
		EmpID:        model.EmpID,
		Name:         model.Name,
		Category:     application.Category(model.Category),
		PeriodKey:    period.Key(model.PeriodKey),
		HasVoted:     model.HasVoted,
		LastVoteTime: cloneTime(model.LastVoteTime),
	}
}

func toPersistenceEmployee(employee application.Employee) persistence.Employee {
	return persistence.Employee{
		EmpID:        employee.EmpID,
		Name:         employee.Name,
		Category:     string(employee.Category),
		PeriodKey:    string(employee.PeriodKey),
		HasVoted:     employee.HasVoted,
		LastVoteTime: cloneTime(employee.LastVoteTime),
	}
}

func toApplicationVoteEvent(model persistence.VoteEvent) application.VoteEvent {
	return application.VoteEvent{
		ID:             model.ID,
		PeriodKey:      period.Key(model.PeriodKey),
		VoterID:        model.VoterID,
		VoterName:      model.VoterName,
		VoterCategory:  application.Category(model.VoterCategory),
		TargetID:       model.TargetID,
		TargetName:     model.TargetName,
		TargetCategory: application.Category(model.TargetCategory),
		CastAt:         model.CastAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		AdminID:   model.AdminID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		AdminID:   session.AdminID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
