package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shiftvote/internal/period"
)

// VotingService orchestrates one vote submission end to end: identity and
// quota validation, the cross-category rule, the atomic ledger/tally write
// per target, and the roster status update. All quota-sensitive steps for a
// given (voter, period) run under the gate, so two concurrent submissions can
// never both pass the quota check and overshoot the allowance.
type VotingService struct {
	roster        RosterRepository
	recorder      VoteRecorder
	tally         *TallyService
	policy        period.Policy
	gate          *Gate
	crossCategory bool
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// VotingServiceConfig wires the voting service dependencies.
type VotingServiceConfig struct {
	Roster   RosterRepository
	Recorder VoteRecorder
	Tally    *TallyService
	Policy   period.Policy
	Gate     *Gate
	// CrossCategoryRule enforces that every target belongs to the voter's
	// complementary category. Some deployments run pure quota accounting
	// without the pairing constraint.
	CrossCategoryRule bool
	IDGenerator       func() string
	Now               func() time.Time
	Logger            *slog.Logger
}

// NewVotingService constructs a VotingService.
func NewVotingService(cfg VotingServiceConfig) *VotingService {
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	gate := cfg.Gate
	if gate == nil {
		gate = NewGate()
	}
	return &VotingService{
		roster:        cfg.Roster,
		recorder:      cfg.Recorder,
		tally:         cfg.Tally,
		policy:        cfg.Policy,
		gate:          gate,
		crossCategory: cfg.CrossCategoryRule,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(cfg.Logger),
	}
}

func (s *VotingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "VotingService", operation, attrs...)
}

// SubmitVotes runs the submission state machine. Rejections are returned as
// typed errors carrying the counts callers display; only storage failures
// surface as plain errors. On success the result reports the voter's new
// used/max counts for the period.
func (s *VotingService) SubmitVotes(ctx context.Context, params SubmitVotesParams) (SubmitVotesResult, error) {
	if s == nil || s.roster == nil || s.recorder == nil || s.tally == nil || s.policy == nil {
		return SubmitVotesResult{}, fmt.Errorf("voting service not configured")
	}

	voterID := strings.TrimSpace(params.VoterID)
	vErr := &ValidationError{}
	if voterID == "" {
		vErr.add("voter_emp_id", "voter employee id is required")
	}
	if len(params.TargetIDs) == 0 {
		vErr.add("voted_for_emp_ids", "at least one target is required")
	}
	targetIDs := make([]string, 0, len(params.TargetIDs))
	for _, rawID := range params.TargetIDs {
		targetID := strings.TrimSpace(rawID)
		if targetID == "" {
			vErr.add("voted_for_emp_ids", "target employee ids must not be blank")
			break
		}
		if targetID == voterID {
			vErr.add("voted_for_emp_ids", "voting for oneself is not allowed")
			break
		}
		targetIDs = append(targetIDs, targetID)
	}
	if vErr.HasErrors() {
		return SubmitVotesResult{}, vErr
	}

	// Resolve the period once; the quota check and the ledger writes below
	// must all land in the same period even if the request spans a rollover.
	key, err := resolvePeriod(s.policy, s.now, params.PeriodKey)
	if err != nil {
		vErr.add("period", "period key is invalid")
		return SubmitVotesResult{}, vErr
	}

	logger := s.loggerWith(ctx, "SubmitVotes",
		"voter_id", voterID,
		"period", string(key),
		"targets", len(targetIDs),
	)

	unlock := s.gate.LockVoter(key, voterID)
	defer unlock()

	voter, err := s.roster.GetEmployee(ctx, voterID, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "vote rejected", "error_kind", "not_found")
			return SubmitVotesResult{}, ErrNotFound
		}
		logger.ErrorContext(ctx, "voter lookup failed", "error", err)
		return SubmitVotesResult{}, err
	}

	status, err := s.tally.CanVote(ctx, voter.EmpID, voter.Category, key)
	if err != nil {
		logger.ErrorContext(ctx, "quota check failed", "error", err)
		return SubmitVotesResult{}, err
	}
	if !status.Allowed {
		logger.With("used", status.Used, "max", status.Max).InfoContext(ctx, "vote rejected", "error_kind", "quota_exhausted")
		return SubmitVotesResult{}, &QuotaExhaustedError{Used: status.Used, Max: status.Max}
	}

	remaining := status.Max - status.Used
	if len(targetIDs) > remaining {
		logger.With("requested", len(targetIDs), "remaining", remaining).InfoContext(ctx, "vote rejected", "error_kind", "batch_exceeds_remaining")
		return SubmitVotesResult{}, &BatchExceedsRemainingError{Requested: len(targetIDs), Remaining: remaining}
	}

	// Validate the full batch before writing anything: a rejected target
	// must leave the ledger and tally untouched.
	targets := make([]Employee, 0, len(targetIDs))
	for _, targetID := range targetIDs {
		target, err := s.roster.GetEmployee(ctx, targetID, key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				logger.With("target_id", targetID).InfoContext(ctx, "vote rejected", "error_kind", "not_found")
				return SubmitVotesResult{}, &TargetNotFoundError{TargetID: targetID}
			}
			logger.ErrorContext(ctx, "target lookup failed", "error", err, "target_id", targetID)
			return SubmitVotesResult{}, err
		}
		if s.crossCategory && target.Category != voter.Category.Complement() {
			logger.With("target_id", targetID).InfoContext(ctx, "vote rejected", "error_kind", "invalid_category_pairing")
			return SubmitVotesResult{}, &CategoryPairingError{TargetID: targetID}
		}
		targets = append(targets, target)
	}

	castAt := s.now()
	for _, target := range targets {
		event := VoteEvent{
			ID:             s.idGenerator(),
			PeriodKey:      key,
			VoterID:        voter.EmpID,
			VoterName:      voter.Name,
			VoterCategory:  voter.Category,
			TargetID:       target.EmpID,
			TargetName:     target.Name,
			TargetCategory: target.Category,
			CastAt:         castAt,
		}
		// The recorder commits the ledger append and the tally increment in
		// one transaction; a storage failure here aborts the submission with
		// state as of the last completed target.
		if err := s.recorder.RecordVote(ctx, event); err != nil {
			logger.ErrorContext(ctx, "vote record failed", "error", err, "target_id", target.EmpID)
			return SubmitVotesResult{}, err
		}
	}

	voter.HasVoted = true
	voter.LastVoteTime = &castAt
	if err := s.roster.UpdateEmployee(ctx, voter); err != nil {
		logger.ErrorContext(ctx, "voter status update failed", "error", err)
		return SubmitVotesResult{}, err
	}

	newUsed := status.Used + len(targets)
	logger.With("votes_used", newUsed, "max_votes", status.Max).InfoContext(ctx, "votes accepted")
	return SubmitVotesResult{PeriodKey: key, VotesUsed: newUsed, MaxVotes: status.Max}, nil
}
