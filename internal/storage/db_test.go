package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DBTestSuite provides a test suite for user and expense operations
type DBTestSuite struct {
	suite.Suite
	db  *DB
	ctx context.Context
}

// SetupTest runs before each test
func (suite *DBTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *DBTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *DBTestSuite) createUser(username string) *models.User {
	u, err := suite.db.CreateUser(suite.ctx, username+"@example.com", username, "hash-"+username)
	require.NoError(suite.T(), err)
	return u
}

func (suite *DBTestSuite) TestCreateUser() {
	u := suite.createUser("alice")
	assert.NotZero(suite.T(), u.ID)
	assert.Equal(suite.T(), "alice@example.com", u.Email)
	assert.False(suite.T(), u.CreatedAt.IsZero())

	found, err := suite.db.GetUserByUsername(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), u.ID, found.ID)
	assert.Equal(suite.T(), "hash-alice", found.PasswordHash)
}

func (suite *DBTestSuite) TestCreateUserDuplicate() {
	original := suite.createUser("alice")

	_, err := suite.db.CreateUser(suite.ctx, "other@example.com", "alice", "other-hash")
	assert.ErrorIs(suite.T(), err, models.ErrDuplicateUsername)

	found, err := suite.db.GetUserByUsername(suite.ctx, "alice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), original.Email, found.Email)
	assert.Equal(suite.T(), original.PasswordHash, found.PasswordHash)

	count, err := suite.db.UserCount(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count)
}

func (suite *DBTestSuite) TestGetUserNotFound() {
	_, err := suite.db.GetUserByUsername(suite.ctx, "nobody")
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)

	_, err = suite.db.GetUserByID(suite.ctx, 42)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *DBTestSuite) TestCreateExpense() {
	u := suite.createUser("alice")
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	e, err := suite.db.CreateExpense(suite.ctx, u.ID, models.Income, decimal.RequireFromString("100.00"), day)
	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), e.ID)
	assert.Equal(suite.T(), u.ID, e.UserID)
	assert.Equal(suite.T(), models.Income, e.Type)
	assert.Equal(suite.T(), "100.00", e.Amount.StringFixed(2))
	assert.Equal(suite.T(), day, e.OccurredOn)
}

func (suite *DBTestSuite) TestCreateExpenseUnknownUser() {
	_, err := suite.db.CreateExpense(suite.ctx, 999, models.Expense, decimal.RequireFromString("1.00"), time.Now())
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *DBTestSuite) TestListExpensesOrderAndOwnership() {
	alice := suite.createUser("alice")
	bob := suite.createUser("bob")

	jan2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []struct {
		user   int64
		typ    models.RecordType
		amount string
		day    time.Time
	}{
		{alice.ID, models.Income, "50.00", jan2},
		{alice.ID, models.Income, "100.00", jan1},
		{bob.ID, models.Expense, "7.00", jan1},
		{alice.ID, models.Expense, "30.00", jan1},
	}
	for _, r := range records {
		_, err := suite.db.CreateExpense(suite.ctx, r.user, r.typ, decimal.RequireFromString(r.amount), r.day)
		require.NoError(suite.T(), err)
	}

	list, err := suite.db.ListExpenses(suite.ctx, alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list, 3)

	assert.Equal(suite.T(), "100.00", list[0].Amount.StringFixed(2))
	assert.Equal(suite.T(), "30.00", list[1].Amount.StringFixed(2))
	assert.Equal(suite.T(), "50.00", list[2].Amount.StringFixed(2))
	for _, e := range list {
		assert.Equal(suite.T(), alice.ID, e.UserID)
	}
}

func (suite *DBTestSuite) TestListExpensesEmpty() {
	u := suite.createUser("alice")
	list, err := suite.db.ListExpenses(suite.ctx, u.ID)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), list)
	assert.Empty(suite.T(), list)
}

func (suite *DBTestSuite) TestDeleteExpense() {
	alice := suite.createUser("alice")
	bob := suite.createUser("bob")
	e, err := suite.db.CreateExpense(suite.ctx, alice.ID, models.Expense, decimal.RequireFromString("5.00"), time.Now())
	require.NoError(suite.T(), err)

	err = suite.db.DeleteExpense(suite.ctx, e.ID, bob.ID)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound, "delete scoped to another owner must not match")

	_, err = suite.db.GetExpense(suite.ctx, e.ID)
	require.NoError(suite.T(), err, "record should survive a foreign delete")

	require.NoError(suite.T(), suite.db.DeleteExpense(suite.ctx, e.ID, alice.ID))

	_, err = suite.db.GetExpense(suite.ctx, e.ID)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

// SessionTestSuite provides a test suite for session operations
type SessionTestSuite struct {
	suite.Suite
	db   *DB
	ctx  context.Context
	user *models.User
}

// SetupTest runs before each test
func (suite *SessionTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()

	user, err := suite.db.CreateUser(suite.ctx, "test@example.com", "testuser", "hash")
	require.NoError(suite.T(), err, "failed to create test user")
	suite.user = user
}

// TearDownTest runs after each test
func (suite *SessionTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *SessionTestSuite) newSession(token string, expiresAt time.Time) {
	now := time.Now()
	err := suite.db.CreateSession(suite.ctx, models.Session{
		Token:        token,
		UserID:       suite.user.ID,
		IssuedAt:     now,
		LastActivity: now,
		ExpiresAt:    expiresAt,
	})
	require.NoError(suite.T(), err)
}

func (suite *SessionTestSuite) TestCreateAndGetSession() {
	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	suite.newSession("token-1", expiresAt)

	info, err := suite.db.GetSession(suite.ctx, "token-1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "testuser", info.User.Username)
	assert.Equal(suite.T(), suite.user.ID, info.Session.UserID)
	assert.WithinDuration(suite.T(), expiresAt, info.Session.ExpiresAt, time.Second)
	assert.Less(suite.T(), time.Since(info.Session.LastActivity), 5*time.Second, "LastActivity should be recent")
}

func (suite *SessionTestSuite) TestCreateSessionUnknownUser() {
	err := suite.db.CreateSession(suite.ctx, models.Session{
		Token: "orphan", UserID: 999, IssuedAt: time.Now(), LastActivity: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *SessionTestSuite) TestRenewSession() {
	suite.newSession("token-1", time.Now().Add(time.Hour))

	original, err := suite.db.GetSession(suite.ctx, "token-1")
	require.NoError(suite.T(), err)

	later := time.Now().Add(time.Minute)
	newExpiry := time.Now().Add(60 * 24 * time.Hour)
	require.NoError(suite.T(), suite.db.RenewSession(suite.ctx, "token-1", later, newExpiry))

	updated, err := suite.db.GetSession(suite.ctx, "token-1")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), updated.Session.LastActivity.After(original.Session.LastActivity),
		"LastActivity should be updated after renewal")
	assert.True(suite.T(), updated.Session.ExpiresAt.After(original.Session.ExpiresAt),
		"ExpiresAt should be extended after renewal")
}

func (suite *SessionTestSuite) TestDeleteSession() {
	suite.newSession("token-1", time.Now().Add(time.Hour))

	require.NoError(suite.T(), suite.db.DeleteSession(suite.ctx, "token-1"))
	_, err := suite.db.GetSession(suite.ctx, "token-1")
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)

	assert.NoError(suite.T(), suite.db.DeleteSession(suite.ctx, "token-1"), "second delete must be a no-op")
}

func (suite *SessionTestSuite) TestCleanExpiredSessions() {
	suite.newSession("expired", time.Now().Add(-time.Hour))
	suite.newSession("live", time.Now().Add(time.Hour))

	removed, err := suite.db.CleanExpiredSessions(suite.ctx, time.Now())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), removed)

	_, err = suite.db.GetSession(suite.ctx, "expired")
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
	_, err = suite.db.GetSession(suite.ctx, "live")
	assert.NoError(suite.T(), err)
}

func (suite *SessionTestSuite) TestCleanExpiredSessionsBoundaries() {
	now := time.Date(2024, 1, 1, 12, 0, 5, 500_000_000, time.UTC)
	suite.newSession("at-now", now)
	suite.newSession("fraction-before", now.Add(-400*time.Millisecond))
	suite.newSession("other-zone-before", now.Add(-time.Second).In(time.FixedZone("UTC+5", 5*3600)))
	suite.newSession("fraction-after", now.Add(50*time.Millisecond))
	suite.newSession("whole-second-after", now.Add(500*time.Millisecond))

	removed, err := suite.db.CleanExpiredSessions(suite.ctx, now)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), removed)

	for _, token := range []string{"fraction-after", "whole-second-after"} {
		_, err := suite.db.GetSession(suite.ctx, token)
		assert.NoError(suite.T(), err, token)
	}
}

func TestForeignKeysOnFreshConnections(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer db.Close()

	// Every statement now runs on a newly opened connection.
	db.conn.SetMaxIdleConns(0)

	for range 3 {
		var enabled int
		require.NoError(t, db.conn.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled)
	}

	_, err = db.CreateExpense(context.Background(), 42, models.Expense, decimal.RequireFromString("1.00"), time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClosedDBReturnsStorageError(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.GetUserByUsername(context.Background(), "alice")
	var serr *models.StorageError
	require.ErrorAs(t, err, &serr)
	assert.NotErrorIs(t, err, models.ErrNotFound)

	_, err = db.ListExpenses(context.Background(), 1)
	assert.ErrorAs(t, err, &serr)
}

func TestNewDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	_, err = db.CreateUser(context.Background(), "a@x.com", "alice", "hash")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening runs migrations again without losing data.
	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	count, err := db.UserCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Test suite runners
func TestDBSuite(t *testing.T) {
	suite.Run(t, new(DBTestSuite))
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
