package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/shiftvote/internal/period"
)

// RosterService manages the per-period employee roster: import, listing,
// per-employee status, candidate lookup, and the administrative period reset.
type RosterService struct {
	roster RosterRepository
	ledger LedgerRepository
	tally  *TallyService
	policy period.Policy
	gate   *Gate
	now    func() time.Time
	logger *slog.Logger
}

// RosterServiceConfig wires the roster service dependencies.
type RosterServiceConfig struct {
	Roster RosterRepository
	Ledger LedgerRepository
	Tally  *TallyService
	Policy period.Policy
	Gate   *Gate
	Now    func() time.Time
	Logger *slog.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(cfg RosterServiceConfig) *RosterService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	gate := cfg.Gate
	if gate == nil {
		gate = NewGate()
	}
	return &RosterService{
		roster: cfg.Roster,
		ledger: cfg.Ledger,
		tally:  cfg.Tally,
		policy: cfg.Policy,
		gate:   gate,
		now:    now,
		logger: defaultLogger(cfg.Logger),
	}
}

func (s *RosterService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// ImportEmployees seeds one period's roster from normalized records. A period
// that already has employees is left untouched and the import reports
// Skipped, so re-running an import never resets voting state mid-period.
func (s *RosterService) ImportEmployees(ctx context.Context, rawPeriod string, records []EmployeeInput) (ImportResult, error) {
	if s == nil || s.roster == nil || s.policy == nil {
		return ImportResult{}, fmt.Errorf("roster service not configured")
	}

	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period", "period key is invalid")
		return ImportResult{}, vErr
	}

	logger := s.loggerWith(ctx, "ImportEmployees", "period", string(key), "records", len(records))

	unlock := s.gate.LockPeriod(key)
	defer unlock()

	count, err := s.roster.CountEmployees(ctx, key)
	if err != nil {
		logger.ErrorContext(ctx, "roster count failed", "error", err)
		return ImportResult{}, err
	}
	if count > 0 {
		logger.With("existing", count).InfoContext(ctx, "import skipped, roster already seeded")
		return ImportResult{PeriodKey: key, Skipped: true}, nil
	}

	seen := make(map[string]bool, len(records))
	imported := 0
	for _, record := range records {
		if record.EmpID == "" || !record.Category.Valid() {
			continue
		}
		if seen[record.EmpID] {
			continue
		}
		seen[record.EmpID] = true

		employee := Employee{
			EmpID:     record.EmpID,
			Name:      record.Name,
			Category:  record.Category,
			PeriodKey: key,
		}
		if err := s.roster.CreateEmployee(ctx, employee); err != nil {
			logger.ErrorContext(ctx, "employee create failed", "error", err, "emp_id", record.EmpID)
			return ImportResult{}, err
		}
		imported++
	}

	logger.With("imported", imported).InfoContext(ctx, "roster imported")
	return ImportResult{PeriodKey: key, Imported: imported}, nil
}

// ListEmployees returns the period's roster joined with quota usage, sorted
// by employee id.
func (s *RosterService) ListEmployees(ctx context.Context, rawPeriod string) ([]EmployeeOverview, error) {
	if s == nil || s.roster == nil || s.tally == nil || s.policy == nil {
		return nil, fmt.Errorf("roster service not configured")
	}

	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period", "period key is invalid")
		return nil, vErr
	}

	employees, err := s.roster.ListEmployees(ctx, key)
	if err != nil {
		return nil, err
	}

	overviews := make([]EmployeeOverview, 0, len(employees))
	for _, employee := range employees {
		status, err := s.tally.CanVote(ctx, employee.EmpID, employee.Category, key)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, EmployeeOverview{
			Employee:  employee,
			VotesUsed: status.Used,
			MaxVotes:  status.Max,
		})
	}

	sort.Slice(overviews, func(i, j int) bool { return overviews[i].EmpID < overviews[j].EmpID })
	return overviews, nil
}

// CheckStatus reports one employee's voting state and quota counts for the
// period.
func (s *RosterService) CheckStatus(ctx context.Context, empID, rawPeriod string) (EmployeeStatus, error) {
	if s == nil || s.roster == nil || s.tally == nil || s.policy == nil {
		return EmployeeStatus{}, fmt.Errorf("roster service not configured")
	}

	vErr := &ValidationError{}
	if empID == "" {
		vErr.add("emp_id", "employee id is required")
		return EmployeeStatus{}, vErr
	}

	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr.add("period", "period key is invalid")
		return EmployeeStatus{}, vErr
	}

	employee, err := s.roster.GetEmployee(ctx, empID, key)
	if err != nil {
		return EmployeeStatus{}, err
	}

	status, err := s.tally.CanVote(ctx, employee.EmpID, employee.Category, key)
	if err != nil {
		return EmployeeStatus{}, err
	}

	return EmployeeStatus{Employee: employee, QuotaStatus: status}, nil
}

// Candidates returns the complementary-category colleagues the employee may
// vote for, together with the voter's own quota state.
func (s *RosterService) Candidates(ctx context.Context, empID, rawPeriod string) (CandidatesResult, error) {
	if s == nil || s.roster == nil || s.tally == nil || s.policy == nil {
		return CandidatesResult{}, fmt.Errorf("roster service not configured")
	}

	vErr := &ValidationError{}
	if empID == "" {
		vErr.add("emp_id", "employee id is required")
		return CandidatesResult{}, vErr
	}

	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr.add("period", "period key is invalid")
		return CandidatesResult{}, vErr
	}

	voter, err := s.roster.GetEmployee(ctx, empID, key)
	if err != nil {
		return CandidatesResult{}, err
	}

	status, err := s.tally.CanVote(ctx, voter.EmpID, voter.Category, key)
	if err != nil {
		return CandidatesResult{}, err
	}

	employees, err := s.roster.ListEmployees(ctx, key)
	if err != nil {
		return CandidatesResult{}, err
	}

	wanted := voter.Category.Complement()
	candidates := make([]Employee, 0)
	for _, employee := range employees {
		if employee.Category == wanted && employee.EmpID != voter.EmpID {
			candidates = append(candidates, employee)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].EmpID < candidates[j].EmpID })

	return CandidatesResult{
		Voter: EmployeeOverview{
			Employee:  voter,
			VotesUsed: status.Used,
			MaxVotes:  status.Max,
		},
		Candidates: candidates,
	}, nil
}

// ResetPeriod wipes one period's votes: the ledger entries, the derived
// tally, and every employee's voting flags. The roster itself survives. The
// whole period is held exclusively for the duration, so no vote can interleave
// with a half-finished reset.
func (s *RosterService) ResetPeriod(ctx context.Context, principal Principal, rawPeriod string) error {
	if s == nil || s.roster == nil || s.ledger == nil || s.tally == nil || s.policy == nil {
		return fmt.Errorf("roster service not configured")
	}

	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period", "period key is invalid")
		return vErr
	}

	logger := s.loggerWith(ctx, "ResetPeriod", "admin_id", principal.AdminID, "period", string(key))

	if !principal.IsAdmin {
		logger.WarnContext(ctx, "reset rejected", "error_kind", "unauthorized")
		return ErrUnauthorized
	}

	unlock := s.gate.LockPeriod(key)
	defer unlock()

	if err := s.ledger.DeletePeriod(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		logger.ErrorContext(ctx, "ledger delete failed", "error", err)
		return err
	}
	if err := s.tally.ClearPeriod(ctx, key); err != nil {
		logger.ErrorContext(ctx, "tally clear failed", "error", err)
		return err
	}
	if err := s.roster.ResetVotingState(ctx, key); err != nil {
		logger.ErrorContext(ctx, "voting state reset failed", "error", err)
		return err
	}

	logger.InfoContext(ctx, "period reset")
	return nil
}

// RebuildTally re-derives one period's tally from the ledger. Administrative
// repair only; the vote path never triggers it.
func (s *RosterService) RebuildTally(ctx context.Context, principal Principal, rawPeriod string) (int, error) {
	if s == nil || s.tally == nil || s.policy == nil {
		return 0, fmt.Errorf("roster service not configured")
	}

	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period", "period key is invalid")
		return 0, vErr
	}

	logger := s.loggerWith(ctx, "RebuildTally", "admin_id", principal.AdminID, "period", string(key))

	if !principal.IsAdmin {
		logger.WarnContext(ctx, "rebuild rejected", "error_kind", "unauthorized")
		return 0, ErrUnauthorized
	}

	unlock := s.gate.LockPeriod(key)
	defer unlock()

	return s.tally.RebuildPeriod(ctx, key)
}
