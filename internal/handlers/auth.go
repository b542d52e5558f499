package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/services"
	pkghttp "github.com/tbrandon/loginhistory/pkg/http"
	pkglogger "github.com/tbrandon/loginhistory/pkg/logger"
)

// AuthServiceInterface defines the interface for the login flow
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string, req services.RecordRequest) (*services.LoginResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	audit    *pkglogger.AuditLogger
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, audit *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		audit:    audit,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string                    `json:"username" validate:"required,max=128"`
	Password string                    `json:"password" validate:"required"`
	Features *models.UserAgentFeatures `json:"features"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Login handles user login. Every attempt, successful or not, is recorded
// in the login history before the response is written.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	record := services.RecordRequest{
		UserAgent: userAgent,
		IPAddress: ipAddress,
		Features:  req.Features,
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password, record)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			h.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login",
				Username:      req.Username,
				IPAddress:     ipAddress,
				UserAgent:     userAgent,
				Success:       false,
				FailureReason: "invalid credentials",
			})
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login",
		Username:  result.Username,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Token:    result.Token,
		UserID:   result.UserID,
		Username: result.Username,
	})
}
