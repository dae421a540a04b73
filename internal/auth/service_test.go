package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/auth"
	"github.com/hugh/leadhub/internal/database/models"
	"github.com/hugh/leadhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(testutil.NewTestDB(t), testutil.NewTestJWTService())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Register(context.Background(), auth.RegisterInput{
		Email:    "alice@example.com",
		Password: "supersecret1",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.True(t, resp.User.IsActive)

	login, err := svc.Login(context.Background(), auth.LoginInput{
		Email:    "alice@example.com",
		Password: "supersecret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.NotNil(t, login.User.LastLogin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	input := auth.RegisterInput{Email: "alice@example.com", Password: "supersecret1", Name: "Alice"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(context.Background(), auth.RegisterInput{
		Email: "alice@example.com", Password: "supersecret1", Name: "Alice",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), auth.LoginInput{
		Email: "alice@example.com", Password: "wrong-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), auth.LoginInput{
		Email: "nobody@example.com", Password: "whatever123",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := auth.NewService(db, testutil.NewTestJWTService())

	user := testutil.CreateTestUser(t, db, "alice@example.com", models.RoleUser)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), auth.LoginInput{
		Email: "alice@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, auth.ErrInactiveUser)
}

func TestGetUserByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := auth.NewService(db, testutil.NewTestJWTService())

	user := testutil.CreateTestUser(t, db, "alice@example.com", models.RoleUser)

	found, err := svc.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = svc.GetUserByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("supersecret1")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret1", hash)

	assert.True(t, auth.CheckPassword("supersecret1", hash))
	assert.False(t, auth.CheckPassword("supersecret2", hash))
}
