package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/shiftvote/internal/application"
	"github.com/example/shiftvote/internal/roster"
)

type rosterService interface {
	ImportEmployees(ctx context.Context, rawPeriod string, records []application.EmployeeInput) (application.ImportResult, error)
	ListEmployees(ctx context.Context, rawPeriod string) ([]application.EmployeeOverview, error)
	CheckStatus(ctx context.Context, empID, rawPeriod string) (application.EmployeeStatus, error)
	Candidates(ctx context.Context, empID, rawPeriod string) (application.CandidatesResult, error)
	ResetPeriod(ctx context.Context, principal application.Principal, rawPeriod string) error
	RebuildTally(ctx context.Context, principal application.Principal, rawPeriod string) (int, error)
}

// RosterHandler serves roster listing, status checks, candidate lookup and
// the administrative import, reset and rebuild operations.
type RosterHandler struct {
	service   rosterService
	responder responder
	logger    *slog.Logger
}

// NewRosterHandler constructs a RosterHandler.
func NewRosterHandler(service rosterService, logger *slog.Logger) *RosterHandler {
	base := defaultLogger(logger)
	return &RosterHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RosterHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RosterHandler", operation, attrs...)
}

// List returns the period's roster joined with quota usage.
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	overviews, err := h.service.ListEmployees(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "roster list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	employees := make([]employeeDTO, 0, len(overviews))
	for _, overview := range overviews {
		employees = append(employees, newEmployeeDTO(overview))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeListResponse{Employees: employees})
}

// CheckStatus reports one employee's voting state and quota counts.
func (h *RosterHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	empID := strings.TrimSpace(r.URL.Query().Get("emp_id"))
	logger := h.log(r.Context(), "CheckStatus", "emp_id", empID)

	status, err := h.service.CheckStatus(r.Context(), empID, r.URL.Query().Get("period"))
	if err != nil {
		logger.ErrorContext(r.Context(), "status check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, statusResponse{
		EmpID:     status.EmpID,
		Name:      status.Name,
		ShiftType: string(status.Category),
		Period:    string(status.PeriodKey),
		HasVoted:  status.HasVoted,
		CanVote:   status.Allowed,
		VotesUsed: status.Used,
		MaxVotes:  status.Max,
		Reason:    status.Reason,
	})
}

// Candidates returns the colleagues an employee may vote for.
func (h *RosterHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	empID := strings.TrimSpace(r.URL.Query().Get("emp_id"))
	logger := h.log(r.Context(), "Candidates", "emp_id", empID)

	result, err := h.service.Candidates(r.Context(), empID, r.URL.Query().Get("period"))
	if err != nil {
		logger.ErrorContext(r.Context(), "candidate lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	candidates := make([]candidateDTO, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		candidates = append(candidates, candidateDTO{
			EmpID:     candidate.EmpID,
			Name:      candidate.Name,
			ShiftType: string(candidate.Category),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, candidatesResponse{
		Voter:      newEmployeeDTO(result.Voter),
		Candidates: candidates,
	})
}

// Import seeds the period's roster. The body is either a JSON array of
// records or a multipart upload carrying a JSON or XLSX file.
func (h *RosterHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Import")

	parsed, dropped, err := h.parseImportBody(r)
	if err != nil {
		logger.ErrorContext(r.Context(), "roster parse failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.ImportEmployees(r.Context(), r.URL.Query().Get("period"), parsed)
	if err != nil {
		logger.ErrorContext(r.Context(), "roster import failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("period", string(result.PeriodKey), "imported", result.Imported, "skipped", result.Skipped).
		InfoContext(r.Context(), "roster import finished")

	h.responder.writeJSON(r.Context(), w, http.StatusOK, importResponse{
		Period:   string(result.PeriodKey),
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Dropped:  dropped,
	})
}

func (h *RosterHandler) parseImportBody(r *http.Request) ([]application.EmployeeInput, int, error) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		contentType = ""
	}

	if contentType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, 0, errBadRequestBody
		}
		defer file.Close()

		var result roster.Result
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".xlsx":
			result, err = roster.ParseXLSX(file)
		case ".json":
			result, err = roster.ParseJSON(file)
		default:
			return nil, 0, roster.ErrUnsupportedFormat
		}
		if err != nil {
			return nil, 0, err
		}
		return result.Records, len(result.Dropped), nil
	}

	result, err := roster.ParseJSON(r.Body)
	if err != nil {
		return nil, 0, err
	}
	return result.Records, len(result.Dropped), nil
}

// Reset wipes the period's votes and voting flags.
func (h *RosterHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req periodRequest
	if r.Body != nil {
		// An empty body means the current period.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	logger := h.log(r.Context(), "Reset", "admin_id", principal.AdminID, "period", req.Period)

	if err := h.service.ResetPeriod(r.Context(), principal, req.Period); err != nil {
		logger.ErrorContext(r.Context(), "period reset failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "period reset")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "投票資料已重設"})
}

// Rebuild re-derives the period's tally from the ledger.
func (h *RosterHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req periodRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	logger := h.log(r.Context(), "Rebuild", "admin_id", principal.AdminID, "period", req.Period)

	voters, err := h.service.RebuildTally(r.Context(), principal, req.Period)
	if err != nil {
		logger.ErrorContext(r.Context(), "tally rebuild failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("voters", voters).InfoContext(r.Context(), "tally rebuilt")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, rebuildResponse{
		Message: "統計已重新計算",
		Voters:  voters,
	})
}

type employeeDTO struct {
	EmpID        string `json:"emp_id"`
	Name         string `json:"name"`
	ShiftType    string `json:"shift_type"`
	HasVoted     bool   `json:"has_voted"`
	VotesUsed    int    `json:"votes_used"`
	MaxVotes     int    `json:"max_votes"`
	LastVoteTime string `json:"last_vote_time,omitempty"`
}

func newEmployeeDTO(overview application.EmployeeOverview) employeeDTO {
	dto := employeeDTO{
		EmpID:     overview.EmpID,
		Name:      overview.Name,
		ShiftType: string(overview.Category),
		HasVoted:  overview.HasVoted,
		VotesUsed: overview.VotesUsed,
		MaxVotes:  overview.MaxVotes,
	}
	if overview.LastVoteTime != nil {
		dto.LastVoteTime = overview.LastVoteTime.UTC().Format(time.RFC3339)
	}
	return dto
}

type employeeListResponse struct {
	Employees []employeeDTO `json:"employees"`
}

type statusResponse struct {
	EmpID     string `json:"emp_id"`
	Name      string `json:"name"`
	ShiftType string `json:"shift_type"`
	Period    string `json:"period"`
	HasVoted  bool   `json:"has_voted"`
	CanVote   bool   `json:"can_vote"`
	VotesUsed int    `json:"votes_used"`
	MaxVotes  int    `json:"max_votes"`
	Reason    string `json:"reason,omitempty"`
}

type candidateDTO struct {
	EmpID     string `json:"emp_id"`
	Name      string `json:"name"`
	ShiftType string `json:"shift_type"`
}

type candidatesResponse struct {
	Voter      employeeDTO    `json:"voter"`
	Candidates []candidateDTO `json:"candidates"`
}

type importResponse struct {
	Period   string `json:"period"`
	Imported int    `json:"imported"`
	Skipped  bool   `json:"skipped"`
	Dropped  int    `json:"dropped,omitempty"`
}

type periodRequest struct {
	Period string `json:"period,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type rebuildResponse struct {
	Message string `json:"message"`
	Voters  int    `json:"voters"`
}
