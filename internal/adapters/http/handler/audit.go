package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/employee-management-api/internal/core/audit"
	"github.com/ogurasousui/employee-management-api/internal/platform/middleware"
)

// AuditHistory は従業員の監査履歴を提供します。
type AuditHistory interface {
	History(ctx context.Context, employeeID int64) ([]*audit.Entry, error)
}

// AuditHandler は監査履歴 API の HTTP 実装です。
type AuditHandler struct {
	history AuditHistory
	logger  *slog.Logger
}

// NewAuditHandler は AuditHandler を生成します。
func NewAuditHandler(history AuditHistory, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{history: history, logger: logger}
}

// Register は監査履歴のルートを登録します。
func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/api/v1/employees/{id}/audit", h.ListByEmployee)
}

// auditEntryResponse は監査エントリの JSON 表現です。
type auditEntryResponse struct {
	ID             int64     `json:"id"`
	EmployeeID     int64     `json:"employeeId"`
	Action         string    `json:"action"`
	PerformedBy    string    `json:"performedBy"`
	PerformedAt    time.Time `json:"performedAt"`
	BeforeSnapshot *string   `json:"beforeSnapshot"`
	AfterSnapshot  *string   `json:"afterSnapshot"`
	Description    string    `json:"description"`
}

// ListByEmployee は指定従業員の監査履歴を新しい順に返します。
func (h *AuditHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.history.History(r.Context(), id)
	if err != nil {
		if httpStatusFor(err) >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "list audit history failed",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		writeError(w, err)
		return
	}

	responses := make([]*auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toAuditEntryResponse(entry))
	}

	writeJSON(w, http.StatusOK, responses)
}

func toAuditEntryResponse(entry *audit.Entry) *auditEntryResponse {
	return &auditEntryResponse{
		ID:             entry.ID,
		EmployeeID:     entry.EmployeeID,
		Action:         string(entry.Action),
		PerformedBy:    entry.PerformedBy,
		PerformedAt:    entry.PerformedAt,
		BeforeSnapshot: entry.BeforeSnapshot,
		AfterSnapshot:  entry.AfterSnapshot,
		Description:    entry.Description,
	}
}
