package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense-ledger/internal/models"
)

// CreateSession stores a new session for a user.
func (db *DB) CreateSession(ctx context.Context, s models.Session) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, issued_at, last_activity, expires_at) VALUES (?, ?, ?, ?, ?)",
		s.Token, s.UserID, s.IssuedAt.UTC(), s.LastActivity.UTC(), s.ExpiresAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create session for user %d: %w", s.UserID, models.ErrNotFound)
		}
		return storageErr("create session", err)
	}
	return nil
}

// GetSession looks up a session by token, expired or not.
func (db *DB) GetSession(ctx context.Context, token string) (*models.SessionInfo, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, s.issued_at, s.last_activity, s.expires_at,
		       u.id, u.email, u.username, u.password_hash, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ?
	`, token)

	var info models.SessionInfo
	s, u := &info.Session, &info.User
	err := row.Scan(&s.Token, &s.UserID, &s.IssuedAt, &s.LastActivity, &s.ExpiresAt,
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storageErr("get session", err)
	}
	return &info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, lastActivity, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		lastActivity.UTC(), expiresAt.UTC(), token,
	)
	if err != nil {
		return storageErr("renew session", err)
	}
	return nil
}

// DeleteSession removes a session by token. Deleting a missing token is not an error.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// CleanExpiredSessions removes all sessions that expired at or before now
// and returns how many were removed.
func (db *DB) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, storageErr("clean sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("clean sessions", err)
	}
	return n, nil
}
