package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/car-marketplace/internal/repository"
	"github.com/iliyamo/car-marketplace/internal/testkit"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(repository.NewUserRepo(testkit.NewDB(t)), bcrypt.MinCost, false)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newAuth(t)

	require.NoError(t, s.Register(ctx, "alice", "pw1"))
	assert.ErrorIs(t, s.Register(ctx, "alice", "other"), ErrUsernameTaken)

	u, err := s.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "pw1", u.PasswordHash)

	_, err = s.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	_, err = s.Authenticate(ctx, "Alice", "pw1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePasswordAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newAuth(t)
	require.NoError(t, s.Register(ctx, "bob", "old"))

	require.NoError(t, s.ChangePassword(ctx, "bob", "new"))
	_, err := s.Authenticate(ctx, "bob", "old")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	_, err = s.Authenticate(ctx, "bob", "new")
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, "ghost", "x"), ErrUserNotFound)

	removed, err := s.DeleteAccount(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, removed)
	ok, err := s.Exists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRehashOnLogin(t *testing.T) {
	ctx := context.Background()
	s := newAuth(t)
	require.NoError(t, s.Register(ctx, "carol", "pw"))

	s.BcryptCost = bcrypt.MinCost + 1
	s.RehashOnLogin = true
	u, err := s.Authenticate(ctx, "carol", "pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	stored, err := s.Users.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
}
