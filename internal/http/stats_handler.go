package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/shiftvote/internal/application"
	"github.com/example/shiftvote/internal/period"
)

type statsService interface {
	Rankings(ctx context.Context, rawPeriod string) (application.Rankings, error)
	ListVotes(ctx context.Context, rawPeriod string) ([]application.VoteEvent, error)
	AvailablePeriods(ctx context.Context) ([]period.Key, error)
	Participation(ctx context.Context, rawPeriod string) (application.ParticipationPoint, error)
	ParticipationHistory(ctx context.Context) ([]application.ParticipationPoint, error)
}

// StatsHandler serves vote rankings, participation reports and the raw vote
// listing.
type StatsHandler struct {
	service   statsService
	responder responder
	logger    *slog.Logger
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(service statsService, logger *slog.Logger) *StatsHandler {
	base := defaultLogger(logger)
	return &StatsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StatsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatsHandler", operation, attrs...)
}

// Rankings returns the per-category vote ranking for a period.
func (h *StatsHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rankings, err := h.service.Rankings(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.log(r.Context(), "Rankings").ErrorContext(r.Context(), "rankings failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rankingsResponse{
		Period:   string(rankings.PeriodKey),
		Fixed:    newRankingDTOs(rankings.Fixed),
		Rotating: newRankingDTOs(rankings.Rotating),
	})
}

// Votes returns the period's raw ledger entries.
func (h *StatsHandler) Votes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, err := h.service.ListVotes(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.log(r.Context(), "Votes").ErrorContext(r.Context(), "vote listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	votes := make([]voteEventDTO, 0, len(events))
	for _, event := range events {
		votes = append(votes, voteEventDTO{
			VoterEmpID:    event.VoterID,
			VoterName:     event.VoterName,
			VoterShift:    string(event.VoterCategory),
			VotedForEmpID: event.TargetID,
			VotedForName:  event.TargetName,
			VotedForShift: string(event.TargetCategory),
			CastAt:        event.CastAt.UTC().Format(time.RFC3339),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, votesResponse{Votes: votes})
}

// Periods lists every period with recorded votes plus the current one.
func (h *StatsHandler) Periods(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	keys, err := h.service.AvailablePeriods(r.Context())
	if err != nil {
		h.log(r.Context(), "Periods").ErrorContext(r.Context(), "period listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	periods := make([]string, 0, len(keys))
	for _, key := range keys {
		periods = append(periods, string(key))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, periodsResponse{Periods: periods})
}

// Participation reports turnout, either for one period or across all periods.
func (h *StatsHandler) Participation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if rawPeriod := r.URL.Query().Get("period"); rawPeriod != "" {
		point, err := h.service.Participation(r.Context(), rawPeriod)
		if err != nil {
			h.log(r.Context(), "Participation").ErrorContext(r.Context(), "participation failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, participationResponse{
			Participation: []participationDTO{newParticipationDTO(point)},
		})
		return
	}

	points, err := h.service.ParticipationHistory(r.Context())
	if err != nil {
		h.log(r.Context(), "Participation").ErrorContext(r.Context(), "participation history failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	history := make([]participationDTO, 0, len(points))
	for _, point := range points {
		history = append(history, newParticipationDTO(point))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, participationResponse{Participation: history})
}

type rankingDTO struct {
	EmpID     string `json:"emp_id"`
	Name      string `json:"name"`
	ShiftType string `json:"shift_type"`
	VoteCount int    `json:"vote_count"`
}

func newRankingDTOs(entries []application.RankingEntry) []rankingDTO {
	dtos := make([]rankingDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, rankingDTO{
			EmpID:     entry.EmpID,
			Name:      entry.Name,
			ShiftType: string(entry.Category),
			VoteCount: entry.VoteCount,
		})
	}
	return dtos
}

type rankingsResponse struct {
	Period   string       `json:"period"`
	Fixed    []rankingDTO `json:"fixed"`
	Rotating []rankingDTO `json:"rotating"`
}

type voteEventDTO struct {
	VoterEmpID    string `json:"voter_emp_id"`
	VoterName     string `json:"voter_name"`
	VoterShift    string `json:"voter_shift_type"`
	VotedForEmpID string `json:"voted_for_emp_id"`
	VotedForName  string `json:"voted_for_name"`
	VotedForShift string `json:"voted_for_shift_type"`
	CastAt        string `json:"cast_at"`
}

type votesResponse struct {
	Votes []voteEventDTO `json:"votes"`
}

type periodsResponse struct {
	Periods []string `json:"periods"`
}

type participationDTO struct {
	Period        string  `json:"period"`
	FixedRate     float64 `json:"fixed_rate"`
	RotatingRate  float64 `json:"rotating_rate"`
	TotalRate     float64 `json:"total_rate"`
	FixedVotes    int     `json:"fixed_votes"`
	RotatingVotes int     `json:"rotating_votes"`
	TotalVotes    int     `json:"total_votes"`
}

func newParticipationDTO(point application.ParticipationPoint) participationDTO {
	return participationDTO{
		Period:        string(point.PeriodKey),
		FixedRate:     point.FixedRate,
		RotatingRate:  point.RotatingRate,
		TotalRate:     point.TotalRate,
		FixedVotes:    point.FixedVotes,
		RotatingVotes: point.RotatingVotes,
		TotalVotes:    point.TotalVotes,
	}
}

type participationResponse struct {
	Participation []participationDTO `json:"participation"`
}
