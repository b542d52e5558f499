package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tbrandon/loginhistory/internal/models"
	pkgauth "github.com/tbrandon/loginhistory/pkg/auth"
)

// TokenIssuer mints access tokens for authenticated users
type TokenIssuer interface {
	Issue(userID int64, username string, scopes []string) (string, error)
}

// AuthService is a deliberately thin login flow. Its purpose is to invoke
// the recorder callback synchronously with the attempted username and the
// observed outcome; everything else about authentication is out of scope.
type AuthService struct {
	users    UserResolver
	recorder *Recorder
	tokens   TokenIssuer
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserResolver, recorder *Recorder, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		recorder: recorder,
		tokens:   tokens,
		logger:   logger,
	}
}

// LoginResult is a successful authentication outcome
type LoginResult struct {
	Token    string
	UserID   int64
	Username string
}

// Login verifies credentials and records the attempt. The recorder runs for
// every attempt, successful or not, before the outcome is returned; a
// recording failure never affects the login result.
func (s *AuthService) Login(ctx context.Context, username, password string, req RecordRequest) (*LoginResult, error) {
	user, err := s.users.GetByName(ctx, NormalizeUsername(username))

	successful := false
	if err == nil {
		successful = pkgauth.ComparePassword(user.PasswordHash, password) == nil
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("user lookup failed during login", slog.Any("error", err))
	}

	req.Username = username
	req.Successful = successful
	s.recorder.Record(ctx, req)

	if !successful {
		return nil, models.ErrInvalidCredentials
	}

	scopes := []string{models.ScopeHistoryView, models.ScopeHistoryRecord, models.ScopeHistoryDelete}
	token, err := s.tokens.Issue(user.ID, user.Name, scopes)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:    token,
		UserID:   user.ID,
		Username: user.Name,
	}, nil
}
