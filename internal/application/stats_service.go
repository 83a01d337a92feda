package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/shiftvote/internal/period"
)

// StatsService derives read-only reports from the ledger and roster: vote
// rankings per recipient category, participation rates across periods, and
// the raw vote listing.
type StatsService struct {
	roster RosterRepository
	ledger LedgerRepository
	policy period.Policy
	now    func() time.Time
	logger *slog.Logger
}

// StatsServiceConfig wires the stats service dependencies.
type StatsServiceConfig struct {
	Roster RosterRepository
	Ledger LedgerRepository
	Policy period.Policy
	Now    func() time.Time
	Logger *slog.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(cfg StatsServiceConfig) *StatsService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &StatsService{
		roster: cfg.Roster,
		ledger: cfg.Ledger,
		policy: cfg.Policy,
		now:    now,
		logger: defaultLogger(cfg.Logger),
	}
}

func (s *StatsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StatsService", operation, attrs...)
}

func (s *StatsService) resolve(rawPeriod string) (period.Key, error) {
	key, err := resolvePeriod(s.policy, s.now, rawPeriod)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("period", "period key is invalid")
		return "", vErr
	}
	return key, nil
}

// Rankings tallies received votes per target for one period, grouped by the
// recipient's category and sorted by vote count descending, then employee id.
func (s *StatsService) Rankings(ctx context.Context, rawPeriod string) (Rankings, error) {
	if s == nil || s.ledger == nil || s.policy == nil {
		return Rankings{}, fmt.Errorf("stats service not configured")
	}

	key, err := s.resolve(rawPeriod)
	if err != nil {
		return Rankings{}, err
	}

	events, err := s.ledger.Scan(ctx, key)
	if err != nil {
		return Rankings{}, err
	}

	type recipient struct {
		entry RankingEntry
	}
	received := make(map[string]*recipient)
	for _, event := range events {
		r, ok := received[event.TargetID]
		if !ok {
			r = &recipient{entry: RankingEntry{
				EmpID:    event.TargetID,
				Name:     event.TargetName,
				Category: event.TargetCategory,
			}}
			received[event.TargetID] = r
		}
		r.entry.VoteCount++
	}

	result := Rankings{PeriodKey: key}
	for _, r := range received {
		switch r.entry.Category {
		case CategoryFixed:
			result.Fixed = append(result.Fixed, r.entry)
		case CategoryRotating:
			result.Rotating = append(result.Rotating, r.entry)
		}
	}

	rank := func(entries []RankingEntry) {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].VoteCount != entries[j].VoteCount {
				return entries[i].VoteCount > entries[j].VoteCount
			}
			return entries[i].EmpID < entries[j].EmpID
		})
	}
	rank(result.Fixed)
	rank(result.Rotating)

	return result, nil
}

// ListVotes returns the period's ledger entries in cast order.
func (s *StatsService) ListVotes(ctx context.Context, rawPeriod string) ([]VoteEvent, error) {
	if s == nil || s.ledger == nil || s.policy == nil {
		return nil, fmt.Errorf("stats service not configured")
	}

	key, err := s.resolve(rawPeriod)
	if err != nil {
		return nil, err
	}

	return s.ledger.Scan(ctx, key)
}

// AvailablePeriods lists every period with at least one ledger entry, newest
// first, always including the current period.
func (s *StatsService) AvailablePeriods(ctx context.Context) ([]period.Key, error) {
	if s == nil || s.ledger == nil || s.policy == nil {
		return nil, fmt.Errorf("stats service not configured")
	}

	keys, err := s.ledger.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}

	current := s.policy.Current(s.now())
	present := false
	for _, key := range keys {
		if key == current {
			present = true
			break
		}
	}
	if !present {
		keys = append(keys, current)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	return keys, nil
}

// Participation reports turnout for the requested period: the share of each
// category's roster that has cast at least one vote, plus raw vote counts by
// the voter's category.
func (s *StatsService) Participation(ctx context.Context, rawPeriod string) (ParticipationPoint, error) {
	if s == nil || s.roster == nil || s.ledger == nil || s.policy == nil {
		return ParticipationPoint{}, fmt.Errorf("stats service not configured")
	}

	key, err := s.resolve(rawPeriod)
	if err != nil {
		return ParticipationPoint{}, err
	}

	employees, err := s.roster.ListEmployees(ctx, key)
	if err != nil {
		return ParticipationPoint{}, err
	}
	events, err := s.ledger.Scan(ctx, key)
	if err != nil {
		return ParticipationPoint{}, err
	}

	var fixedTotal, rotatingTotal, fixedVoted, rotatingVoted int
	for _, employee := range employees {
		switch employee.Category {
		case CategoryFixed:
			fixedTotal++
			if employee.HasVoted {
				fixedVoted++
			}
		case CategoryRotating:
			rotatingTotal++
			if employee.HasVoted {
				rotatingVoted++
			}
		}
	}

	point := ParticipationPoint{PeriodKey: key}
	for _, event := range events {
		switch event.VoterCategory {
		case CategoryFixed:
			point.FixedVotes++
		case CategoryRotating:
			point.RotatingVotes++
		}
	}
	point.TotalVotes = point.FixedVotes + point.RotatingVotes

	rate := func(voted, total int) float64 {
		if total == 0 {
			return 0
		}
		return float64(voted) / float64(total) * 100
	}
	point.FixedRate = rate(fixedVoted, fixedTotal)
	point.RotatingRate = rate(rotatingVoted, rotatingTotal)
	point.TotalRate = rate(fixedVoted+rotatingVoted, fixedTotal+rotatingTotal)

	return point, nil
}

// ParticipationHistory reports turnout for every available period, newest
// first.
func (s *StatsService) ParticipationHistory(ctx context.Context) ([]ParticipationPoint, error) {
	if s == nil || s.roster == nil || s.ledger == nil || s.policy == nil {
		return nil, fmt.Errorf("stats service not configured")
	}

	keys, err := s.AvailablePeriods(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]ParticipationPoint, 0, len(keys))
	for _, key := range keys {
		point, err := s.Participation(ctx, string(key))
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}
