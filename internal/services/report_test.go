package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/query"
	"github.com/tbrandon/loginhistory/internal/repositories"
)

type stubHistory struct {
	attempts []*models.LoginAttempt
	deleted  map[int64]bool
}

func (s *stubHistory) Search(_ context.Context, opts query.Options) (*repositories.SearchResult, error) {
	return &repositories.SearchResult{
		Attempts: s.attempts,
		Total:    len(s.attempts),
		Limit:    opts.Limit,
		Page:     1,
	}, nil
}

func (s *stubHistory) GetByID(_ context.Context, id int64) (*models.LoginAttempt, error) {
	for _, a := range s.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubHistory) DeleteByID(_ context.Context, id int64) (bool, error) {
	if s.deleted == nil {
		s.deleted = make(map[int64]bool)
	}
	if s.deleted[id] {
		return false, nil
	}
	s.deleted[id] = true
	return true, nil
}

func (s *stubHistory) DistinctUsernames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.attempts))
	for _, a := range s.attempts {
		names = append(names, a.Username)
	}
	return names, nil
}

type stubUserLister struct {
	users map[int64]*models.User
}

func (s *stubUserLister) GetByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	found := make(map[int64]*models.User)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			found[id] = u
		}
	}
	return found, nil
}

func ua(s string) *string { return &s }

func TestReportService_AnnotatesUserState(t *testing.T) {
	history := &stubHistory{attempts: []*models.LoginAttempt{
		{ID: 1, UserID: 7, Username: "alice", UserAgent: ua("Mozilla/5.0 (Windows NT 10.0) Chrome/120.0.0.0 Safari/537.36")},
		{ID: 2, UserID: 42, Username: "renamed"},
		{ID: 3, UserID: 0, Username: "ghost"},
	}}
	users := &stubUserLister{users: map[int64]*models.User{7: {ID: 7, Name: "alice"}}}
	svc := NewReportService(history, users, testLogger())

	report, err := svc.Query(context.Background(), query.Options{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)

	assert.Equal(t, UserActive, report.Rows[0].State)
	assert.Equal(t, UserDeleted, report.Rows[1].State)
	assert.Equal(t, UserNonexistent, report.Rows[2].State)

	assert.Equal(t, "Chrome", report.Rows[0].Summary.Browser)
	assert.Empty(t, report.Rows[1].Summary.Browser, "no user agent, nothing parsed")
}

func TestReportService_TotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 25, 1},
		{5, 2, 3},
		{4, 2, 2},
		{10, 0, 1},
	}

	for _, tt := range tests {
		r := Report{Total: tt.total, Limit: tt.limit}
		assert.Equal(t, tt.want, r.TotalPages(), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestReportService_DeleteIsIdempotent(t *testing.T) {
	history := &stubHistory{attempts: []*models.LoginAttempt{{ID: 1}}}
	svc := NewReportService(history, &stubUserLister{}, testLogger())

	require.NoError(t, svc.Delete(context.Background(), 1))
	require.NoError(t, svc.Delete(context.Background(), 1), "second removal is a no-op, not an error")
	require.NoError(t, svc.Delete(context.Background(), 999), "unknown id is a no-op")
}
