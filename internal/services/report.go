package services

import (
	"context"
	"log/slog"

	"github.com/tbrandon/loginhistory/internal/metrics"
	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/query"
	"github.com/tbrandon/loginhistory/internal/repositories"
	"github.com/tbrandon/loginhistory/internal/useragent"
)

// UserState classifies the account behind a logged attempt at render time.
type UserState string

const (
	// UserActive means the account still exists
	UserActive UserState = "active"
	// UserDeleted means the row references an account id that no longer exists
	UserDeleted UserState = "deleted"
	// UserNonexistent means the username never matched an account
	UserNonexistent UserState = "nonexistent"
)

// HistoryStore is the slice of the login-history repository the report needs
type HistoryStore interface {
	Search(ctx context.Context, opts query.Options) (*repositories.SearchResult, error)
	GetByID(ctx context.Context, id int64) (*models.LoginAttempt, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	DistinctUsernames(ctx context.Context) ([]string, error)
}

// UserLister batch-resolves account ids for row annotation
type UserLister interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
}

// ReportRow is one annotated log row ready for rendering
type ReportRow struct {
	Attempt *models.LoginAttempt
	State   UserState
	Summary useragent.Summary
}

// Report is one page of annotated rows plus pagination metadata
type Report struct {
	Rows   []ReportRow
	Total  int
	Limit  int
	Page   int
	Offset int
}

// TotalPages derives the page count from the total and the page size
func (r *Report) TotalPages() int {
	if r.Limit <= 0 {
		return 1
	}
	pages := r.Total / r.Limit
	if r.Total%r.Limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// ReportService answers report queries over the login history log
type ReportService struct {
	history HistoryStore
	users   UserLister
	logger  *slog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(history HistoryStore, users UserLister, logger *slog.Logger) *ReportService {
	return &ReportService{
		history: history,
		users:   users,
		logger:  logger,
	}
}

// Query runs a search and annotates each row with its account state and
// parsed user-agent summary.
func (s *ReportService) Query(ctx context.Context, opts query.Options) (*Report, error) {
	result, err := s.history.Search(ctx, opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.annotate(ctx, result.Attempts)
	if err != nil {
		return nil, err
	}

	return &Report{
		Rows:   rows,
		Total:  result.Total,
		Limit:  result.Limit,
		Page:   result.Page,
		Offset: result.Offset,
	}, nil
}

// Get retrieves and annotates a single row
func (s *ReportService) Get(ctx context.Context, id int64) (*ReportRow, error) {
	attempt, err := s.history.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.annotate(ctx, []*models.LoginAttempt{attempt})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// Delete removes a row by id. Removing an id that is already gone is a
// harmless no-op, not an error.
func (s *ReportService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.history.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		metrics.RowsDeleted.WithLabelValues("manual").Inc()
		s.logger.Info("login history row deleted", slog.Int64("id", id))
	}
	return nil
}

// KnownUsernames feeds the report's filter dropdown
func (s *ReportService) KnownUsernames(ctx context.Context) ([]string, error) {
	return s.history.DistinctUsernames(ctx)
}

func (s *ReportService) annotate(ctx context.Context, attempts []*models.LoginAttempt) ([]ReportRow, error) {
	ids := make([]int64, 0, len(attempts))
	seen := make(map[int64]bool, len(attempts))
	for _, a := range attempts {
		if a.UserID != models.NonexistentUserID && !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(attempts))
	for _, a := range attempts {
		row := ReportRow{Attempt: a, State: UserNonexistent}
		if a.UserID != models.NonexistentUserID {
			if _, ok := users[a.UserID]; ok {
				row.State = UserActive
			} else {
				row.State = UserDeleted
			}
		}
		if a.UserAgent != nil {
			row.Summary = useragent.Parse(*a.UserAgent)
		}
		rows = append(rows, row)
	}

	return rows, nil
}
