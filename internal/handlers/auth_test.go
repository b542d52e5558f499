package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/services"
)

type mockAuthService struct {
	result      *services.LoginResult
	err         error
	gotUsername string
	gotRecord   services.RecordRequest
}

func (m *mockAuthService) Login(ctx context.Context, username, password string, req services.RecordRequest) (*services.LoginResult, error) {
	m.gotUsername = username
	m.gotRecord = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestAuthHandler_Login_Success(t *testing.T) {
	service := &mockAuthService{
		result: &services.LoginResult{Token: "tok-123", UserID: 42, Username: "karen"},
	}
	handler := NewAuthHandler(service, testAudit(), nil)

	req := NewTestRequest(t, "POST", "/auth/login", LoginRequest{
		Username: "karen",
		Password: "pass",
	})
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0")
	req.RemoteAddr = "203.0.113.9:51234"
	w := httptest.NewRecorder()

	handler.Login(w, req)

	var resp LoginResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "tok-123", resp.Token)
	assert.Equal(t, int64(42), resp.UserID)

	// The recorder input must carry the request's client context
	assert.Equal(t, "karen", service.gotUsername)
	assert.Equal(t, "203.0.113.9", service.gotRecord.IPAddress)
	assert.Contains(t, service.gotRecord.UserAgent, "Firefox")
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{err: models.ErrInvalidCredentials}
	handler := NewAuthHandler(service, testAudit(), nil)

	req := NewTestRequest(t, "POST", "/auth/login", LoginRequest{
		Username: "karen",
		Password: "wrong",
	})
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	service := &mockAuthService{}
	handler := NewAuthHandler(service, testAudit(), nil)

	req := NewTestRequest(t, "POST", "/auth/login", map[string]string{"username": "karen"})
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	service := &mockAuthService{}
	handler := NewAuthHandler(service, testAudit(), nil)

	req := httptest.NewRequest("POST", "/auth/login", nil)
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, 400, w.Code)
}
