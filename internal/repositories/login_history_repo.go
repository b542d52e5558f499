package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tbrandon/loginhistory/internal/database"
	"github.com/tbrandon/loginhistory/internal/models"
	"github.com/tbrandon/loginhistory/internal/query"
)

// rowScanner abstracts pgx.Row and pgx.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// LoginHistoryRepository handles database operations for the login history log
type LoginHistoryRepository struct {
	db *database.DB

	// now is swappable so relative-interval filters are testable
	now func() time.Time
}

// SearchResult is one page of the log plus the pagination metadata the
// report needs. Page and Offset reflect any end-of-set clamping.
type SearchResult struct {
	Attempts []*models.LoginAttempt
	Total    int
	Limit    int
	Page     int
	Offset   int
}

const loginHistoryColumns = `id, user_id, username, user_agent, user_agent_features, ip_address, login_was_successful, login_timestamp`

// NewLoginHistoryRepository creates a new LoginHistoryRepository
func NewLoginHistoryRepository(db *database.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{db: db, now: time.Now}
}

func scanLoginAttemptRow(row rowScanner) (*models.LoginAttempt, error) {
	var a models.LoginAttempt

	err := row.Scan(
		&a.ID, &a.UserID, &a.Username, &a.UserAgent,
		&a.Features, &a.IPAddress, &a.Successful, &a.LoginAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

func scanLoginAttemptRows(rows pgx.Rows) ([]*models.LoginAttempt, error) {
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0)

	for rows.Next() {
		a, err := scanLoginAttemptRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login attempt rows: %w", err)
	}

	return attempts, nil
}

// Record appends one attempt to the log and returns the stored row
func (r *LoginHistoryRepository) Record(ctx context.Context, attempt *models.LoginAttempt) (*models.LoginAttempt, error) {
	sql := `
		INSERT INTO login_history (user_id, username, user_agent, user_agent_features, ip_address, login_was_successful)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + loginHistoryColumns

	stored, err := scanLoginAttemptRow(r.db.Pool.QueryRow(
		ctx, sql,
		attempt.UserID,
		attempt.Username,
		attempt.UserAgent,
		attempt.Features,
		attempt.IPAddress,
		attempt.Successful,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to record login attempt: %w", err)
	}

	return stored, nil
}

// GetByID retrieves a single attempt
func (r *LoginHistoryRepository) GetByID(ctx context.Context, id int64) (*models.LoginAttempt, error) {
	sql := `SELECT ` + loginHistoryColumns + ` FROM login_history WHERE id = $1`
	return scanLoginAttemptRow(r.db.Pool.QueryRow(ctx, sql, id))
}

// Search counts the rows matching opts, clamps the requested page against
// that total, and fetches the page. The count and the fetch are two
// statements; rows inserted in between simply shift the window, which is
// acceptable for a report view.
func (r *LoginHistoryRepository) Search(ctx context.Context, opts query.Options) (*SearchResult, error) {
	where, params := opts.WhereSQL(1, r.now())

	var total int
	countSQL := "SELECT COUNT(*) FROM login_history"
	if where != "" {
		countSQL += " " + where
	}
	if err := r.db.Pool.QueryRow(ctx, countSQL, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count login attempts: %w", err)
	}

	offset := query.ClampOffset(total, opts.Limit, opts.Page)

	fetchSQL := "SELECT " + loginHistoryColumns + " FROM login_history"
	if where != "" {
		fetchSQL += " " + where
	}
	fetchSQL += " " + opts.OrderBySQL()

	fetchParams := params
	if opts.Limit > 0 {
		fetchSQL += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(params)+1, len(params)+2)
		fetchParams = append(append([]interface{}{}, params...), opts.Limit, offset)
	}

	rows, err := r.db.Pool.Query(ctx, fetchSQL, fetchParams...)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}

	attempts, err := scanLoginAttemptRows(rows)
	if err != nil {
		return nil, err
	}

	page := 1
	if opts.Limit > 0 {
		page = offset/opts.Limit + 1
	}

	return &SearchResult{
		Attempts: attempts,
		Total:    total,
		Limit:    opts.Limit,
		Page:     page,
		Offset:   offset,
	}, nil
}

// DeleteByID removes one row. Deleting an id that does not exist is a no-op;
// the bool reports whether a row was actually removed.
func (r *LoginHistoryRepository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_history WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete login attempt: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteOlderThan removes rows whose timestamp predates the cutoff
func (r *LoginHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_history WHERE login_timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune login history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DistinctUsernames lists every username seen in the log, for the report's
// filter dropdown
func (r *LoginHistoryRepository) DistinctUsernames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT username FROM login_history ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usernames: %w", err)
	}

	return names, nil
}
