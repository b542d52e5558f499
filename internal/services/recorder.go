package services

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"

	"github.com/tbrandon/loginhistory/internal/config"
	"github.com/tbrandon/loginhistory/internal/metrics"
	"github.com/tbrandon/loginhistory/internal/models"
)

// UserResolver resolves a normalized login name to an account
type UserResolver interface {
	GetByName(ctx context.Context, name string) (*models.User, error)
}

// AttemptStore persists login attempts
type AttemptStore interface {
	Record(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error)
}

// RecordRequest carries everything the recorder needs about one attempt:
// the submitted username, the observed outcome, and the request context.
type RecordRequest struct {
	Username   string
	Successful bool
	UserAgent  string
	IPAddress  string
	Features   *models.UserAgentFeatures
}

// Recorder is the post-authentication callback. The authentication flow
// invokes Record synchronously after each attempt; Record never propagates
// a persistence failure back, so logging can never block a login.
type Recorder struct {
	users   UserResolver
	history AttemptStore
	cfg     config.HistoryConfig
	logger  *slog.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(users UserResolver, history AttemptStore, cfg config.HistoryConfig, logger *slog.Logger) *Recorder {
	return &Recorder{
		users:   users,
		history: history,
		cfg:     cfg,
		logger:  logger,
	}
}

// Record captures one login attempt. It returns the stored row, or nil when
// the attempt was skipped (nonexistent user with logging disabled) or when
// persistence failed.
func (s *Recorder) Record(ctx context.Context, req RecordRequest) *models.LoginAttempt {
	userID := models.NonexistentUserID

	name := NormalizeUsername(req.Username)
	if name != "" {
		user, err := s.users.GetByName(ctx, name)
		switch {
		case err == nil:
			userID = user.ID
		case errors.Is(err, models.ErrNotFound):
			// no matching account; userID stays at the sentinel
		default:
			s.logger.Warn("user resolution failed during login recording",
				slog.String("username", name),
				slog.Any("error", err),
			)
		}
	}

	if userID == models.NonexistentUserID && !s.cfg.LogNonexistentUsers {
		metrics.AttemptsSkipped.Inc()
		return nil
	}

	attempt := &models.LoginAttempt{
		UserID:     userID,
		Username:   html.EscapeString(req.Username),
		UserAgent:  nilIfEmpty(req.UserAgent),
		Features:   req.Features,
		Successful: req.Successful,
	}
	if s.cfg.LogIPAddresses {
		attempt.IPAddress = nilIfEmpty(req.IPAddress)
	}

	stored, err := s.history.Record(ctx, attempt)
	if err != nil {
		// non-fatal: the surrounding login flow must not be blocked
		s.logger.Warn("failed to record login attempt",
			slog.String("username", name),
			slog.Bool("successful", req.Successful),
			slog.Any("error", err),
		)
		metrics.RecordFailures.Inc()
		return nil
	}

	metrics.AttemptsRecorded.WithLabelValues(outcomeLabel(req.Successful)).Inc()
	return stored
}

// NormalizeUsername applies account-name rules to a submitted login name:
// lowercase, trimmed, with anything outside [a-z0-9._-] replaced by a dash.
func NormalizeUsername(username string) string {
	name := strings.ToLower(strings.TrimSpace(username))

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func outcomeLabel(successful bool) string {
	if successful {
		return "success"
	}
	return "failure"
}
