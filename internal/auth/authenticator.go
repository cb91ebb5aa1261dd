package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"expense-ledger/internal/models"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

// UserStore persists user identities.
type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticator registers users and checks their credentials.
type Authenticator struct {
	users  UserStore
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

// NewAuthenticator creates an Authenticator backed by users.
func NewAuthenticator(users UserStore, hasher PasswordHasher) *Authenticator {
	return &Authenticator{users: users, hasher: hasher}
}

// Register validates the input, hashes the password and stores a new user.
func (a *Authenticator) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if err := validateRegistration(email, username, password); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user, err := a.users.CreateUser(ctx, email, username, hash)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	return user, nil
}

func validateRegistration(email, username, password string) error {
	switch {
	case username == "":
		return &models.ValidationError{Field: "username", Reason: "is required"}
	case len(username) > 64:
		return &models.ValidationError{Field: "username", Reason: "is too long"}
	case email == "" || !strings.Contains(email, "@"):
		return &models.ValidationError{Field: "email", Reason: "is not a valid address"}
	case password == "":
		return &models.ValidationError{Field: "password", Reason: "is required"}
	case len(password) > maxPasswordBytes:
		return &models.ValidationError{Field: "password", Reason: "is too long"}
	}
	return nil
}

// Authenticate checks username and password. Unknown users and wrong
// passwords both yield models.ErrInvalidCredentials after the same amount of
// hashing work.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (models.Principal, error) {
	// bcrypt would only compare the first 72 bytes, and Register never
	// stores such a password.
	if len(password) > maxPasswordBytes {
		if err := a.burnVerify(ctx, password[:maxPasswordBytes]); err != nil {
			return models.Anonymous, err
		}
		return models.Anonymous, models.ErrInvalidCredentials
	}

	user, err := a.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return models.Anonymous, err
		}
		if err := a.burnVerify(ctx, password); err != nil {
			return models.Anonymous, err
		}
		return models.Anonymous, models.ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return models.Anonymous, err
	}
	if !ok {
		return models.Anonymous, models.ErrInvalidCredentials
	}
	return models.Principal{UserID: user.ID, Username: user.Username}, nil
}

// burnVerify runs a comparison against a throwaway hash.
func (a *Authenticator) burnVerify(ctx context.Context, password string) error {
	a.dummyOnce.Do(func() {
		a.dummyHash, a.dummyErr = a.hasher.Hash(context.WithoutCancel(ctx), "not-a-real-password")
	})
	if a.dummyErr != nil {
		return a.dummyErr
	}
	_, err := a.hasher.Verify(ctx, password, a.dummyHash)
	return err
}
