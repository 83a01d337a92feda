package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/example/shiftvote/internal/period"
)

// TallyService answers quota accounting questions: how many votes an employee
// has used in a period and whether another vote is allowed. The tally it
// reads is derived state; RebuildPeriod reconstructs it from the ledger.
type TallyService struct {
	tally  TallyRepository
	ledger LedgerRepository
	quotas QuotaStore
	logger *slog.Logger
}

// NewTallyService wires dependencies for the tally service.
func NewTallyService(tally TallyRepository, ledger LedgerRepository, quotas QuotaStore) *TallyService {
	return NewTallyServiceWithLogger(tally, ledger, quotas, nil)
}

// NewTallyServiceWithLogger constructs a TallyService with a specified logger.
func NewTallyServiceWithLogger(tally TallyRepository, ledger LedgerRepository, quotas QuotaStore, logger *slog.Logger) *TallyService {
	return &TallyService{
		tally:  tally,
		ledger: ledger,
		quotas: quotas,
		logger: defaultLogger(logger),
	}
}

func (s *TallyService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TallyService", operation, attrs...)
}

// Used returns the votes the employee has used in the period. An employee
// without a tally row has used zero votes; that is not an error.
func (s *TallyService) Used(ctx context.Context, empID string, key period.Key) (int, error) {
	if s == nil || s.tally == nil {
		return 0, fmt.Errorf("tally repository not configured")
	}
	return s.tally.GetUsed(ctx, empID, key)
}

// CanVote reports whether the employee may cast one more vote in the period.
// The category quota is read from configuration at check time, never cached,
// so administrative changes apply from the next check onward.
func (s *TallyService) CanVote(ctx context.Context, empID string, category Category, key period.Key) (QuotaStatus, error) {
	if s == nil || s.tally == nil || s.quotas == nil {
		return QuotaStatus{}, fmt.Errorf("tally service not configured")
	}

	used, err := s.tally.GetUsed(ctx, empID, key)
	if err != nil {
		return QuotaStatus{}, err
	}

	max, err := s.quotas.GetQuota(ctx, category)
	if err != nil {
		return QuotaStatus{}, err
	}

	status := QuotaStatus{Used: used, Max: max, Allowed: used < max}
	if !status.Allowed {
		status.Reason = fmt.Sprintf("本期投票配額已用完 (%d/%d)", used, max)
	}
	return status, nil
}

// ClearPeriod removes every tally row of one period.
func (s *TallyService) ClearPeriod(ctx context.Context, key period.Key) error {
	if s == nil || s.tally == nil {
		return fmt.Errorf("tally repository not configured")
	}
	return s.tally.ReplaceForPeriod(ctx, key, nil)
}

// RebuildPeriod reconstructs the tally of one period from the ledger,
// overwriting whatever rows exist. It is an explicit administrative repair
// operation and is idempotent; the vote write path never calls it.
func (s *TallyService) RebuildPeriod(ctx context.Context, key period.Key) (int, error) {
	if s == nil || s.tally == nil || s.ledger == nil {
		return 0, fmt.Errorf("tally service not configured")
	}

	logger := s.loggerWith(ctx, "RebuildPeriod", "period", string(key))

	events, err := s.ledger.Scan(ctx, key)
	if err != nil {
		logger.ErrorContext(ctx, "ledger scan failed", "error", err)
		return 0, err
	}

	counts := make(map[string]*TallyRow)
	order := make([]string, 0)
	for _, event := range events {
		row, ok := counts[event.VoterID]
		if !ok {
			row = &TallyRow{EmpID: event.VoterID, PeriodKey: key, Category: event.VoterCategory}
			counts[event.VoterID] = row
			order = append(order, event.VoterID)
		}
		row.VotesUsed++
	}

	sort.Strings(order)
	rows := make([]TallyRow, 0, len(order))
	for _, voterID := range order {
		rows = append(rows, *counts[voterID])
	}

	if err := s.tally.ReplaceForPeriod(ctx, key, rows); err != nil {
		logger.ErrorContext(ctx, "tally replace failed", "error", err)
		return 0, err
	}

	logger.With("events", len(events), "voters", len(rows)).InfoContext(ctx, "tally rebuilt")
	return len(rows), nil
}
