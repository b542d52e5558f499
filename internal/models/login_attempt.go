package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// NonexistentUserID is the user_id sentinel stored when the submitted
// username did not resolve to an account at the time of the attempt.
// It must never collide with a real account id (ids start at 1).
const NonexistentUserID int64 = 0

// LoginAttempt is one row of the login history log. Rows are append-only:
// after insert the only mutations are deletion by id or by age.
type LoginAttempt struct {
	ID         int64              `db:"id" json:"id"`
	UserID     int64              `db:"user_id" json:"user_id"`
	Username   string             `db:"username" json:"username"`
	UserAgent  *string            `db:"user_agent" json:"user_agent"`
	Features   *UserAgentFeatures `db:"user_agent_features" json:"user_agent_features"`
	IPAddress  *string            `db:"ip_address" json:"ip_address"`
	Successful bool               `db:"login_was_successful" json:"login_was_successful"`
	LoginAt    time.Time          `db:"login_timestamp" json:"login_timestamp"`
}

// UserAgentFeatures holds client-reported capability flags submitted by the
// login form's probe script. A nil *UserAgentFeatures is stored as SQL NULL,
// never as an empty JSON object.
type UserAgentFeatures struct {
	JavaScript *bool  `json:"javascript,omitempty"`
	Flash      *bool  `json:"flash,omitempty"`
	Screen     string `json:"screen,omitempty"`
	Window     string `json:"window,omitempty"`
}

// Scan implements sql.Scanner for JSONB
func (f *UserAgentFeatures) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return ErrBadRequest
	}

	return json.Unmarshal(bytes, f)
}

// Value implements driver.Valuer for JSONB
func (f *UserAgentFeatures) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}
