package models

import "time"

// User is an account that a submitted login name can resolve to. The login
// history retains the submitted name even after the account is renamed or
// deleted, so this model is deliberately small.
type User struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
