package repositories

import (
	"context"
	"fmt"

	"github.com/tbrandon/loginhistory/internal/database"
	"github.com/tbrandon/loginhistory/internal/models"
)

// UserRepository handles account lookups for username resolution
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, password_hash, created_at`

func scanUserRow(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &u, nil
}

// GetByName retrieves an account by its normalized login name
func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE name = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, sql, name))
}

// GetByID retrieves an account by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Pool.QueryRow(ctx, sql, id))
}

// GetByIDs retrieves accounts as a map keyed by id. Ids with no surviving
// account are simply absent, which is how the report tells "deleted" from
// "existing".
func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.db.Pool.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// Create inserts a new account and returns it with its assigned id
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	sql := `
		INSERT INTO users (name, password_hash)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.db.Pool.QueryRow(ctx, sql, user.Name, user.PasswordHash))
	if err != nil {
		return nil, err
	}
	return created, nil
}
