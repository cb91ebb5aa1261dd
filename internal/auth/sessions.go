package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"
)

// DefaultSessionTTL is how long sessions last (30 days).
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionStore persists token to user bindings.
type SessionStore interface {
	CreateSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, token string) (*models.SessionInfo, error)
	RenewSession(ctx context.Context, token string, lastActivity, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Resolved is the outcome of a successful session lookup.
type Resolved struct {
	Principal models.Principal
	ExpiresAt time.Time
	// Renewed is set when the expiry was pushed forward by this lookup.
	Renewed bool
}

// SessionManager issues, resolves and destroys server-side sessions.
type SessionManager struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionManager creates a manager whose sessions last ttl.
func NewSessionManager(store SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of a fresh session.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create issues a new token bound to userID.
func (m *SessionManager) Create(ctx context.Context, userID int64) (string, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()
	err = m.store.CreateSession(ctx, models.Session{
		Token:        token,
		UserID:       userID,
		IssuedAt:     now,
		LastActivity: now,
		ExpiresAt:    now.Add(m.ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token to the user it was issued for. Missing, unknown and
// expired tokens all yield models.ErrUnauthenticated.
//
// Sessions in the second half of their lifetime are renewed, so active users
// stay logged in while idle sessions still expire.
func (m *SessionManager) Resolve(ctx context.Context, token string) (Resolved, error) {
	if token == "" {
		return Resolved{}, models.ErrUnauthenticated
	}

	info, err := m.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Resolved{}, models.ErrUnauthenticated
		}
		return Resolved{}, err
	}

	now := m.now()
	if !info.Session.ExpiresAt.After(now) {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			return Resolved{}, err
		}
		return Resolved{}, models.ErrUnauthenticated
	}

	res := Resolved{
		Principal: models.Principal{UserID: info.User.ID, Username: info.User.Username},
		ExpiresAt: info.Session.ExpiresAt,
	}

	if info.Session.ExpiresAt.Sub(now) < m.ttl/2 {
		expiresAt := now.Add(m.ttl)
		// A failed renewal leaves the current session usable.
		if err := m.store.RenewSession(ctx, token, now, expiresAt); err == nil {
			res.ExpiresAt = expiresAt
			res.Renewed = true
		}
	}
	return res, nil
}

// Destroy removes the session. Destroying an unknown token succeeds.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, token)
}

// CleanExpired deletes every expired session.
func (m *SessionManager) CleanExpired(ctx context.Context) (int64, error) {
	return m.store.CleanExpiredSessions(ctx, m.now())
}
