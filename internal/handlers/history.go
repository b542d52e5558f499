package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tbrandon/loginhistory/internal/auth"
	"github.com/tbrandon/loginhistory/internal/config"
	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/query"
	"github.com/tbrandon/loginhistory/internal/services"
	"github.com/tbrandon/loginhistory/internal/useragent"
	pkghttp "github.com/tbrandon/loginhistory/pkg/http"
	pkglogger "github.com/tbrandon/loginhistory/pkg/logger"
)

// ReportServiceInterface defines the interface for report queries
type ReportServiceInterface interface {
	Query(ctx context.Context, opts query.Options) (*services.Report, error)
	Get(ctx context.Context, id int64) (*services.ReportRow, error)
	Delete(ctx context.Context, id int64) error
	KnownUsernames(ctx context.Context) ([]string, error)
}

// HistoryHandler serves the login history report in its three renderings
// (HTML, JSON, RSS) plus single-row detail and removal.
type HistoryHandler struct {
	report ReportServiceInterface
	cfg    config.HistoryConfig
	audit  *pkglogger.AuditLogger
	logger *slog.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(report ReportServiceInterface, cfg config.HistoryConfig, audit *pkglogger.AuditLogger, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		report: report,
		cfg:    cfg,
		audit:  audit,
		logger: logger,
	}
}

// HistoryRow is one report row as served over JSON
type HistoryRow struct {
	*models.LoginAttempt
	UserState        string `json:"user_state"`
	UserAgentSummary string `json:"user_agent_summary"`
}

// HistoryResponse is the JSON report payload
type HistoryResponse struct {
	Attempts   []HistoryRow `json:"attempts"`
	Total      int          `json:"total"`
	Limit      int          `json:"limit"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
}

// ListHTML renders the filterable report page
func (h *HistoryHandler) ListHTML(w http.ResponseWriter, r *http.Request) {
	opts := query.Parse(r.URL.Query(), h.cfg.RowLimit)

	report, err := h.report.Query(r.Context(), opts)
	if err != nil {
		h.logger.Error("history query failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	usernames, err := h.report.KnownUsernames(r.Context())
	if err != nil {
		// The filter dropdown is a convenience; the report still renders.
		h.logger.Warn("username listing failed", slog.Any("error", err))
	}

	page := buildReportPage(report, usernames, r.URL.Query(), reportPageConfig{
		DateFormat: h.cfg.DateFormat,
		ShowIP:     h.cfg.LogIPAddresses,
		CanDelete:  h.callerMayDelete(r),
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportTemplate.Execute(w, page); err != nil {
		h.logger.Error("report rendering failed", slog.Any("error", err))
	}
}

// ListJSON serves the same result set as JSON
func (h *HistoryHandler) ListJSON(w http.ResponseWriter, r *http.Request) {
	opts := query.Parse(r.URL.Query(), h.cfg.RowLimit)

	report, err := h.report.Query(r.Context(), opts)
	if err != nil {
		h.logger.Error("history query failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, historyResponse(report))
}

// ListRSS serves the same result set as an RSS 2.0 feed
func (h *HistoryHandler) ListRSS(w http.ResponseWriter, r *http.Request) {
	opts := query.Parse(r.URL.Query(), h.cfg.RowLimit)

	report, err := h.report.Query(r.Context(), opts)
	if err != nil {
		h.logger.Error("history query failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	WriteRSS(w, r, report)
}

// GetByID serves a single annotated row
func (h *HistoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	row, err := h.report.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Login history row not found")
			return
		}
		h.logger.Error("history lookup failed", slog.Int64("id", id), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HistoryRow{
		LoginAttempt:     row.Attempt,
		UserState:        string(row.State),
		UserAgentSummary: summaryText(row),
	})
}

// Delete removes a single row. Deleting an id that no longer exists
// succeeds, so retried deletes are safe.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if !h.callerMayDelete(r) {
		pkghttp.WriteForbidden(w, "Insufficient permissions")
		return
	}

	if err := h.report.Delete(r.Context(), id); err != nil {
		h.logger.Error("history delete failed", slog.Int64("id", id), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	actor := ""
	if claims := auth.GetUserFromContext(r); claims != nil {
		actor = claims.Username
	}
	h.audit.LogHistoryAction("history_row_deleted", id, actor, pkghttp.ExtractClientIP(r, nil))

	w.WriteHeader(http.StatusNoContent)
}

// callerMayDelete reports whether the authenticated caller may remove rows.
// When no delete scope is required, any authenticated viewer may.
func (h *HistoryHandler) callerMayDelete(r *http.Request) bool {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		return false
	}
	if !h.cfg.RequireDeleteScope {
		return true
	}
	return models.HasScope(claims.Scopes, models.ScopeHistoryDelete)
}

func historyResponse(report *services.Report) HistoryResponse {
	attempts := make([]HistoryRow, 0, len(report.Rows))
	for i := range report.Rows {
		row := &report.Rows[i]
		attempts = append(attempts, HistoryRow{
			LoginAttempt:     row.Attempt,
			UserState:        string(row.State),
			UserAgentSummary: summaryText(row),
		})
	}

	return HistoryResponse{
		Attempts:   attempts,
		Total:      report.Total,
		Limit:      report.Limit,
		Page:       report.Page,
		TotalPages: report.TotalPages(),
	}
}

func summaryText(row *services.ReportRow) string {
	if row.Attempt.UserAgent == nil {
		return useragent.NoData
	}
	return row.Summary.String()
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		pkghttp.WriteBadRequest(w, "Invalid row id")
		return 0, false
	}
	return id, true
}
