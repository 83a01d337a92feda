package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/shiftvote/internal/application"
)

var (
	errBadRequestBody      = errors.New("請求格式無效。")
	errMissingSessionToken = errors.New("請提供認證憑證")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto HTTP statuses and localized
// messages. Quota rejections carry their counts so the UI can show them.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		exhausted *application.QuotaExhaustedError
		batch     *application.BatchExceedsRemainingError
		pairing   *application.CategoryPairingError
		target    *application.TargetNotFoundError
		badConfig *application.ConfigOutOfRangeError
		vErr      *application.ValidationError
	)

	switch {
	case errors.As(err, &exhausted):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "QUOTA_EXHAUSTED",
			Message:   "本期投票配額已用完。",
			VotesUsed: &exhausted.Used,
			MaxVotes:  &exhausted.Max,
		})
	case errors.As(err, &batch):
		remaining := batch.Remaining
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BATCH_EXCEEDS_REMAINING",
			Message:   "投票數量超過本期剩餘配額。",
			Remaining: &remaining,
		})
	case errors.As(err, &pairing):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_CATEGORY_PAIRING",
			Message:   "只能投給另一班別的同事: " + pairing.TargetID,
		})
	case errors.As(err, &target):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "TARGET_NOT_FOUND",
			Message:   "查無被投票員工: " + target.TargetID,
		})
	case errors.As(err, &badConfig):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "QUOTA_OUT_OF_RANGE",
			Message:   "配額設定超出允許範圍。",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "您沒有執行此操作的權限。",
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "登入已逾期，請重新登入。",
		})
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "登入已失效，請重新登入。",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "查無指定的資料。"})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "輸入內容有誤。",
			Errors:  localizeValidationErrors(vErr),
		})
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "伺服器發生內部錯誤。"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "請求內容不正確。"
	case http.StatusUnauthorized:
		return "需要登入認證。"
	case http.StatusForbidden:
		return "您沒有執行此操作的權限。"
	case http.StatusNotFound:
		return "查無指定的資料。"
	case http.StatusConflict:
		return "請求與目前的資料狀態衝突。"
	case http.StatusUnprocessableEntity:
		return "輸入內容有誤。"
	default:
		return "伺服器發生內部錯誤。"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "voter employee id is required":
		return "請提供投票人工號。"
	case "at least one target is required":
		return "請至少選擇一位被投票人。"
	case "target employee ids must not be blank":
		return "被投票人工號不可空白。"
	case "voting for oneself is not allowed":
		return "不能投票給自己。"
	case "employee id is required":
		return "請提供員工工號。"
	case "period key is invalid":
		return "期別格式不正確。"
	case "category must be 2000 or 3000":
		return "班別必須為 2000 或 3000。"
	case "administrator id is required":
		return "請提供管理員帳號。"
	case "password is required":
		return "請提供密碼。"
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	VotesUsed *int              `json:"votes_used,omitempty"`
	MaxVotes  *int              `json:"max_votes,omitempty"`
	Remaining *int              `json:"remaining,omitempty"`
}
