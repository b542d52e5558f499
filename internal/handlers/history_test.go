package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/tbrandon/loginhistory/internal/config"
	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/query"
	"github.com/tbrandon/loginhistory/internal/services"
	"github.com/tbrandon/loginhistory/internal/useragent"
)

type mockReportService struct {
	report     *services.Report
	row        *services.ReportRow
	getErr     error
	deletedIDs []int64
	usernames  []string
	gotOpts    query.Options
}

func (m *mockReportService) Query(ctx context.Context, opts query.Options) (*services.Report, error) {
	m.gotOpts = opts
	return m.report, nil
}

func (m *mockReportService) Get(ctx context.Context, id int64) (*services.ReportRow, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.row, nil
}

func (m *mockReportService) Delete(ctx context.Context, id int64) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockReportService) KnownUsernames(ctx context.Context) ([]string, error) {
	return m.usernames, nil
}

func strPtr(s string) *string { return &s }

func testHistoryConfig() config.HistoryConfig {
	return config.HistoryConfig{
		LogIPAddresses:     true,
		RowLimit:           25,
		DateFormat:         "2006-01-02 15:04",
		RequireDeleteScope: true,
	}
}

func sampleReport() *services.Report {
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Gecko/20100101 Firefox/121.0"
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &services.Report{
		Rows: []services.ReportRow{
			{
				Attempt: &models.LoginAttempt{
					ID: 1, UserID: 42, Username: "karen",
					UserAgent: &ua, IPAddress: strPtr("203.0.113.9"),
					Successful: true, LoginAt: at,
				},
				State:   services.UserActive,
				Summary: useragent.Parse(ua),
			},
			{
				Attempt: &models.LoginAttempt{
					ID: 2, UserID: 17, Username: "olduser",
					Successful: false, LoginAt: at.Add(-time.Hour),
				},
				State: services.UserDeleted,
			},
			{
				Attempt: &models.LoginAttempt{
					ID: 3, UserID: models.NonexistentUserID, Username: "ghost",
					IPAddress:  strPtr("198.51.100.4"),
					Successful: false, LoginAt: at.Add(-2 * time.Hour),
				},
				State: services.UserNonexistent,
			},
		},
		Total: 3,
		Limit: 25,
		Page:  1,
	}
}

func newHistoryHandler(service *mockReportService, cfg config.HistoryConfig) *HistoryHandler {
	return NewHistoryHandler(service, cfg, testAudit(), testLogger())
}

func TestHistoryHandler_ListJSON(t *testing.T) {
	service := &mockReportService{report: sampleReport()}
	handler := newHistoryHandler(service, testHistoryConfig())

	req := httptest.NewRequest("GET", "/history.json?login_was_successful=0", nil)
	w := httptest.NewRecorder()

	handler.ListJSON(w, req)

	var resp HistoryResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp.Attempts, 3)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)

	assert.Equal(t, "active", resp.Attempts[0].UserState)
	assert.Contains(t, resp.Attempts[0].UserAgentSummary, "Firefox")
	assert.Equal(t, "deleted", resp.Attempts[1].UserState)
	assert.Equal(t, useragent.NoData, resp.Attempts[1].UserAgentSummary)
	assert.Equal(t, "nonexistent", resp.Attempts[2].UserState)

	// The filter must have reached the query layer
	assert.NotEmpty(t, service.gotOpts.Clauses)
}

func TestHistoryHandler_ListHTML(t *testing.T) {
	service := &mockReportService{report: sampleReport(), usernames: []string{"karen", "ghost"}}
	handler := newHistoryHandler(service, testHistoryConfig())

	req := httptest.NewRequest("GET", "/history", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryView, models.ScopeHistoryDelete)
	w := httptest.NewRecorder()

	handler.ListHTML(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	// Active user links, deleted user struck out, nonexistent emphasized
	assert.Contains(t, body, `<a href="/users/42">karen</a>`)
	assert.Contains(t, body, "<s>olduser</s>")
	assert.Contains(t, body, "<em>ghost</em>")
	// Raw timestamp rides along for client-side formatting
	assert.Contains(t, body, `data-timestamp="`)
	// Caller holds the delete scope, so delete controls render
	assert.Contains(t, body, `class="delete-row"`)
	// IP logging is on, so the IP column renders
	assert.Contains(t, body, "203.0.113.9")
	assert.Contains(t, body, useragent.NoData)
}

func TestHistoryHandler_ListHTML_NoDeleteControlWithoutScope(t *testing.T) {
	service := &mockReportService{report: sampleReport()}
	handler := newHistoryHandler(service, testHistoryConfig())

	req := httptest.NewRequest("GET", "/history", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryView)
	w := httptest.NewRecorder()

	handler.ListHTML(w, req)

	assert.Equal(t, 200, w.Code)
	assert.NotContains(t, w.Body.String(), `class="delete-row"`)
}

func TestHistoryHandler_ListHTML_HidesIPColumnWhenDisabled(t *testing.T) {
	cfg := testHistoryConfig()
	cfg.LogIPAddresses = false
	service := &mockReportService{report: sampleReport()}
	handler := newHistoryHandler(service, cfg)

	req := httptest.NewRequest("GET", "/history", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryView)
	w := httptest.NewRecorder()

	handler.ListHTML(w, req)

	assert.NotContains(t, w.Body.String(), "203.0.113.9")
}

func TestHistoryHandler_ListRSS(t *testing.T) {
	service := &mockReportService{report: sampleReport()}
	handler := newHistoryHandler(service, testHistoryConfig())

	req := httptest.NewRequest("GET", "http://report.example/history.rss", nil)
	w := httptest.NewRecorder()

	handler.ListRSS(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")

	body := w.Body.String()
	assert.Contains(t, body, "<title>Successful login attempt for karen from 203.0.113.9</title>")
	assert.Contains(t, body, "<title>Failed login attempt for olduser (deleted)</title>")
	assert.Contains(t, body, "<title>Failed login attempt for ghost (nonexistent) from 198.51.100.4</title>")
	assert.Contains(t, body, "<link>http://report.example/history/1</link>")
	assert.Contains(t, body, useragent.NoData)
}

func TestHistoryHandler_GetByID_NotFound(t *testing.T) {
	service := &mockReportService{getErr: models.ErrNotFound}
	handler := newHistoryHandler(service, testHistoryConfig())

	router := chi.NewRouter()
	router.Get("/history/{id}", handler.GetByID)

	req := httptest.NewRequest("GET", "/history/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
}

func TestHistoryHandler_GetByID_BadID(t *testing.T) {
	service := &mockReportService{}
	handler := newHistoryHandler(service, testHistoryConfig())

	router := chi.NewRouter()
	router.Get("/history/{id}", handler.GetByID)

	req := httptest.NewRequest("GET", "/history/banana", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestHistoryHandler_Delete(t *testing.T) {
	service := &mockReportService{}
	handler := newHistoryHandler(service, testHistoryConfig())

	router := chi.NewRouter()
	router.Delete("/history/{id}", handler.Delete)

	req := httptest.NewRequest("DELETE", "/history/7", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryDelete)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []int64{7}, service.deletedIDs)

	// Deleting the same id again is still a success
	req = httptest.NewRequest("DELETE", "/history/7", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryDelete)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHistoryHandler_Delete_ForbiddenWithoutScope(t *testing.T) {
	service := &mockReportService{}
	handler := newHistoryHandler(service, testHistoryConfig())

	router := chi.NewRouter()
	router.Delete("/history/{id}", handler.Delete)

	req := httptest.NewRequest("DELETE", "/history/7", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryView)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, service.deletedIDs)
}

func TestHistoryHandler_Delete_AnyViewerWhenScopeNotRequired(t *testing.T) {
	cfg := testHistoryConfig()
	cfg.RequireDeleteScope = false
	service := &mockReportService{}
	handler := newHistoryHandler(service, cfg)

	router := chi.NewRouter()
	router.Delete("/history/{id}", handler.Delete)

	req := httptest.NewRequest("DELETE", "/history/7", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryView)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []int64{7}, service.deletedIDs)
}

func TestHistoryHandler_Delete_WildcardScope(t *testing.T) {
	service := &mockReportService{}
	handler := newHistoryHandler(service, testHistoryConfig())

	router := chi.NewRouter()
	router.Delete("/history/{id}", handler.Delete)

	req := httptest.NewRequest("DELETE", "/history/7", nil)
	req = WithAuthContext(req, 1, "admin", models.ScopeAll)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHistoryHandler_Pager(t *testing.T) {
	report := sampleReport()
	report.Total = 120
	report.Page = 2
	service := &mockReportService{report: report}
	handler := newHistoryHandler(service, testHistoryConfig())

	req := httptest.NewRequest("GET", "/history?page=2&username=karen", nil)
	req = WithAuthContext(req, 42, "karen", models.ScopeHistoryView)
	w := httptest.NewRecorder()

	handler.ListHTML(w, req)

	body := w.Body.String()
	// Pager links preserve the active filter
	assert.True(t, strings.Contains(body, "page=1") && strings.Contains(body, "page=3"))
	assert.Contains(t, body, "username=karen")
}
