package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/shiftvote/internal/application"
)

type votingService interface {
	SubmitVotes(ctx context.Context, params application.SubmitVotesParams) (application.SubmitVotesResult, error)
}

// VoteHandler serves vote submission.
type VoteHandler struct {
	service   votingService
	responder responder
	logger    *slog.Logger
}

// NewVoteHandler constructs a VoteHandler.
func NewVoteHandler(service votingService, logger *slog.Logger) *VoteHandler {
	base := defaultLogger(logger)
	return &VoteHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *VoteHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "VoteHandler", operation, attrs...)
}

// Submit handles one vote submission.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Submit", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode vote request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Submit", "voter_emp_id", req.VoterEmpID, "targets", len(req.VotedForEmpIDs))

	result, err := h.service.SubmitVotes(r.Context(), application.SubmitVotesParams{
		VoterID:   req.VoterEmpID,
		TargetIDs: req.VotedForEmpIDs,
		PeriodKey: req.Period,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "vote submission rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("votes_used", result.VotesUsed, "max_votes", result.MaxVotes).InfoContext(r.Context(), "votes accepted")

	h.responder.writeJSON(r.Context(), w, http.StatusOK, voteResponse{
		Message:   "投票成功",
		Period:    string(result.PeriodKey),
		VotesUsed: result.VotesUsed,
		MaxVotes:  result.MaxVotes,
	})
}

type voteRequest struct {
	VoterEmpID     string   `json:"voter_emp_id"`
	VotedForEmpIDs []string `json:"voted_for_emp_ids"`
	Period         string   `json:"period,omitempty"`
}

type voteResponse struct {
	Message   string `json:"message"`
	Period    string `json:"period"`
	VotesUsed int    `json:"votes_used"`
	MaxVotes  int    `json:"max_votes"`
}
