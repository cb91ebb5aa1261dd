package models

import "time"

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session represents a server-side login session.
type Session struct {
	Token        string    `json:"-"`
	UserID       int64     `json:"user_id"`
	IssuedAt     time.Time `json:"issued_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Principal is the identity a request acts as. The zero value is anonymous.
type Principal struct {
	UserID   int64
	Username string
}

// Anonymous is the principal of a request without a valid session.
var Anonymous = Principal{}

// Authenticated reports whether p refers to a real user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// SessionInfo holds a session together with the user it belongs to.
type SessionInfo struct {
	Session Session
	User    User
}
