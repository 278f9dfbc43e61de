package auth

import (
	"testing"
	"time"

	"atelier-backend/internal/domain/users"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second connection to :memory: would see an empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&users.User{}))
	return db
}

func makeTestUser(t *testing.T, db *gorm.DB, account, password string) *users.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := users.User{
		Account:  account,
		Email:    account + "@example.com",
		Password: string(hashed),
		Role:     users.RoleUser,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func reload(t *testing.T, db *gorm.DB, id uint) *users.User {
	t.Helper()
	var user users.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	makeTestUser(t, db, "alice01", "pass1")

	user, err := m.Authenticate("alice01", "pass1")
	require.NoError(t, err)
	require.Equal(t, "alice01", user.Account)

	// Email works as the identifier too.
	user, err = m.Authenticate("alice01@example.com", "pass1")
	require.NoError(t, err)
	require.Equal(t, "alice01", user.Account)

	_, err = m.Authenticate("alice01", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = m.Authenticate("nobody", "pass1")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestIssueSessionEvictsOldest(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	user := makeTestUser(t, db, "alice01", "pass1")

	issued := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		token, err := m.IssueSession(user)
		require.NoError(t, err)
		issued = append(issued, token)
	}

	stored := reload(t, db, user.ID)
	require.Len(t, stored.Tokens, users.MaxActiveSessions)
	require.Equal(t, issued[2:], stored.Tokens)

	// The evicted tokens no longer validate even though their signatures are fine.
	for _, token := range issued[:2] {
		_, _, err := m.ValidateSession(token, "/user/profile")
		require.ErrorIs(t, err, ErrSessionRevoked)
	}
	for _, token := range issued[2:] {
		_, _, err := m.ValidateSession(token, "/user/profile")
		require.NoError(t, err)
	}
}

func TestValidateSession(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	user := makeTestUser(t, db, "alice01", "pass1")

	token, err := m.IssueSession(user)
	require.NoError(t, err)

	got, gotToken, err := m.ValidateSession(token, "/user/profile")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, token, gotToken)

	_, _, err = m.ValidateSession("not-a-token", "/user/profile")
	require.ErrorIs(t, err, ErrInvalidToken)

	// A token signed with another secret is rejected.
	other := NewManager(db, "other-secret")
	foreign, err := other.IssueSession(reload(t, db, user.ID))
	require.NoError(t, err)
	_, _, err = m.ValidateSession(foreign, "/user/profile")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateSessionExpiry(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	m.ttl = -time.Hour
	user := makeTestUser(t, db, "alice01", "pass1")

	expired, err := m.IssueSession(user)
	require.NoError(t, err)

	// Expiry is advisory: the renewal and logout paths still accept the token
	// because it is still registered on the user.
	_, _, err = m.ValidateSession(expired, "/user/profile")
	require.ErrorIs(t, err, ErrTokenExpired)

	got, _, err := m.ValidateSession(expired, "/user/refresh")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, _, err = m.ValidateSession(expired, "/user/logout")
	require.NoError(t, err)
}

func TestRotateSessionReplacesSlotInPlace(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	user := makeTestUser(t, db, "alice01", "pass1")

	first, err := m.IssueSession(user)
	require.NoError(t, err)
	second, err := m.IssueSession(user)
	require.NoError(t, err)
	third, err := m.IssueSession(user)
	require.NoError(t, err)

	rotated, err := m.RotateSession(user, second)
	require.NoError(t, err)

	stored := reload(t, db, user.ID)
	require.Equal(t, []string{first, rotated, third}, stored.Tokens)

	_, _, err = m.ValidateSession(rotated, "/user/profile")
	require.NoError(t, err)

	// The replaced token is gone even though its signature is still valid.
	_, _, err = m.ValidateSession(second, "/user/profile")
	require.ErrorIs(t, err, ErrSessionRevoked)

	// Rotating a token that is not registered fails.
	_, err = m.RotateSession(stored, second)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRevokeSession(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	user := makeTestUser(t, db, "alice01", "pass1")

	token, err := m.IssueSession(user)
	require.NoError(t, err)

	require.NoError(t, m.RevokeSession(user, token))
	_, _, err = m.ValidateSession(token, "/user/profile")
	require.ErrorIs(t, err, ErrSessionRevoked)

	// Revoking an absent token is a no-op, not an error.
	require.NoError(t, m.RevokeSession(user, token))
	require.Empty(t, reload(t, db, user.ID).Tokens)
}

func TestAuthenticateDoesNotMutate(t *testing.T) {
	db := newTestDB(t)
	m := NewManager(db, "test-secret")
	user := makeTestUser(t, db, "alice01", "pass1")

	before := reload(t, db, user.ID).UpdatedAt
	_, err := m.Authenticate("alice01", "pass1")
	require.NoError(t, err)
	require.Equal(t, before, reload(t, db, user.ID).UpdatedAt)
}
