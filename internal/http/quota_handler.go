package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/shiftvote/internal/application"
)

type quotaService interface {
	GetQuotas(ctx context.Context) (map[application.Category]int, error)
	SetQuota(ctx context.Context, principal application.Principal, category application.Category, maxVotes int) error
}

// QuotaHandler serves quota reads and administrative quota updates.
type QuotaHandler struct {
	service   quotaService
	responder responder
	logger    *slog.Logger
}

// NewQuotaHandler constructs a QuotaHandler.
func NewQuotaHandler(service quotaService, logger *slog.Logger) *QuotaHandler {
	base := defaultLogger(logger)
	return &QuotaHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *QuotaHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "QuotaHandler", operation, attrs...)
}

// Get returns the current per-category allowances.
func (h *QuotaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	quotas, err := h.service.GetQuotas(r.Context())
	if err != nil {
		h.log(r.Context(), "Get").ErrorContext(r.Context(), "quota read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := make(map[string]int, len(quotas))
	for category, maxVotes := range quotas {
		payload[string(category)] = maxVotes
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, quotasResponse{Quotas: payload})
}

// Update changes one category's allowance.
func (h *QuotaHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req quotaUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode quota request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update",
		"admin_id", principal.AdminID,
		"shift_type", req.ShiftType,
		"max_votes", req.MaxVotes,
	)

	if err := h.service.SetQuota(r.Context(), principal, application.Category(req.ShiftType), req.MaxVotes); err != nil {
		logger.ErrorContext(r.Context(), "quota update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "quota updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "配額已更新"})
}

type quotaUpdateRequest struct {
	ShiftType string `json:"shift_type"`
	MaxVotes  int    `json:"max_votes"`
}

type quotasResponse struct {
	Quotas map[string]int `json:"quotas"`
}
