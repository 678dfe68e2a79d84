package service

import (
	"context"
	"testing"
	"time"

	"bakatter.app/server/internal/cache"
	"bakatter.app/server/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (AuthService, *fakeUserRepo, *cache.Cache) {
	t.Helper()
	profiles, err := cache.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { profiles.Close() })

	repo := newFakeUserRepo()
	return NewAuthService(repo, profiles, "test-secret", time.Hour), repo, profiles
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the account and answers a token", func(t *testing.T) {
		svc, repo, profiles := newTestAuth(t)

		resp, err := svc.Register(ctx, RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "hunter2hunter2",
			Avatar:   "🦊",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)
		assert.Equal(t, "alice", resp.User.Username)
		assert.NotEqual(t, "hunter2hunter2", resp.User.PasswordHash, "password is stored hashed")

		stored, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, stored.Profile)

		mirrored, err := profiles.LoadProfile(resp.User.ID.String())
		require.NoError(t, err)
		require.NotNil(t, mirrored, "profile is mirrored locally at sign-up")
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		input := RegisterInput{Username: "alice", Email: "alice@example.com", Password: "hunter2hunter2"}
		_, err := svc.Register(ctx, input)
		require.NoError(t, err)

		input.Username = "alice2"
		_, err = svc.Register(ctx, input)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "b@example.com", Password: "hunter2hunter2"})
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc AuthService) {
		t.Helper()
		_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)
	}

	t.Run("correct credentials", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		register(t, svc)

		resp, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		register(t, svc)

		_, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("answers the live profile", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		resp, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "hunter2hunter2"})
		require.NoError(t, err)

		user, err := svc.CurrentUser(ctx, resp.User.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _, _ := newTestAuth(t)
		_, err := svc.CurrentUser(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, apperror.ErrNotAuthenticated)
	})
}

func TestAuthService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	svc, repo, profiles := newTestAuth(t)
	resp, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, resp.User.ID))

	_, err = repo.FindByID(ctx, resp.User.ID.String())
	assert.Error(t, err)

	mirrored, err := profiles.LoadProfile(resp.User.ID.String())
	require.NoError(t, err)
	assert.Nil(t, mirrored, "local mirror is dropped with the account")
}
