package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expense-ledger/internal/models"
)

const userColumns = "id, email, username, password_hash, created_at, updated_at"

// CreateUser creates a new user with the given credentials. The username must
// not be taken yet.
func (db *DB) CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	now := db.now()
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		email, username, passwordHash, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w", username, models.ErrDuplicateUsername)
		}
		return nil, storageErr("create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("create user", err)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row, "get user")
}

// GetUserByUsername retrieves a user by exact username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row, "get user by username")
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, storageErr("count users", err)
	}
	return count, nil
}

func scanUser(row *sql.Row, op string) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storageErr(op, err)
	}
	return &u, nil
}
