package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/services"
	pkghttp "github.com/tbrandon/loginhistory/pkg/http"
)

// AttemptRecorderInterface defines the interface for recording attempts
type AttemptRecorderInterface interface {
	Record(ctx context.Context, req services.RecordRequest) *models.LoginAttempt
}

// AttemptsHandler ingests login attempts reported by external authentication
// frontends that delegate history keeping to this service.
type AttemptsHandler struct {
	recorder AttemptRecorderInterface
	ipConfig *pkghttp.IPConfig
}

// NewAttemptsHandler creates a new AttemptsHandler
func NewAttemptsHandler(recorder AttemptRecorderInterface, ipConfig *pkghttp.IPConfig) *AttemptsHandler {
	return &AttemptsHandler{
		recorder: recorder,
		ipConfig: ipConfig,
	}
}

// RecordAttemptRequest represents the request body for reporting an attempt.
// Successful is a pointer so a missing field fails validation instead of
// silently recording a failure.
type RecordAttemptRequest struct {
	Username   string                    `json:"username" validate:"required,max=128"`
	Successful *bool                     `json:"successful" validate:"required"`
	UserAgent  string                    `json:"user_agent" validate:"max=1024"`
	IPAddress  string                    `json:"ip_address" validate:"omitempty,ip"`
	Features   *models.UserAgentFeatures `json:"features"`
}

// RecordAttemptResponse reports whether the attempt was stored and, if so,
// under which row id.
type RecordAttemptResponse struct {
	Recorded bool  `json:"recorded"`
	ID       int64 `json:"id,omitempty"`
}

// Record handles attempt ingestion. The caller may supply the client IP it
// observed; when absent, the IP of the reporting request is used.
func (h *AttemptsHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordAttemptRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := req.IPAddress
	if ipAddress == "" {
		ipAddress = pkghttp.ExtractClientIP(r, h.ipConfig)
	}

	attempt := h.recorder.Record(r.Context(), services.RecordRequest{
		Username:   req.Username,
		Successful: *req.Successful,
		UserAgent:  req.UserAgent,
		IPAddress:  ipAddress,
		Features:   req.Features,
	})

	// Recording is best-effort: a skipped or failed write is still a 202
	// so callers never couple their login flow to this service's storage.
	resp := RecordAttemptResponse{}
	if attempt != nil {
		resp.Recorded = true
		resp.ID = attempt.ID
	}
	pkghttp.WriteJSON(w, http.StatusAccepted, resp)
}
