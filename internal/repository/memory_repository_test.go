package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

func seedRepoUser(t *testing.T, repo UserRepository, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:              email,
		PasswordHash:       "hash",
		Role:               domain.RoleUser,
		Status:             domain.StatusActive,
		RefreshTokenHashes: []string{},
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestMemoryRepository_DuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	seedRepoUser(t, repo, "dup@x.com")

	err := repo.Create(context.Background(), &domain.User{Email: "DUP@x.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryRepository_RotateRefreshTokenHash(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := seedRepoUser(t, repo, "rotate@x.com")

	_, err := repo.AddRefreshTokenHash(ctx, user.ID, "old")
	require.NoError(t, err)

	rotated, err := repo.RotateRefreshTokenHash(ctx, user.ID, "old", "new")
	require.NoError(t, err)
	assert.True(t, rotated)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, stored.RefreshTokenHashes)

	// The old digest is gone, so rotating it again reports failure and
	// leaves the set untouched.
	rotated, err = repo.RotateRefreshTokenHash(ctx, user.ID, "old", "newer")
	require.NoError(t, err)
	assert.False(t, rotated)

	stored, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, stored.RefreshTokenHashes)
}

func TestMemoryRepository_ClonesOnRead(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := seedRepoUser(t, repo, "clone@x.com")

	_, err := repo.AddRefreshTokenHash(ctx, user.ID, "h1")
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	first.RefreshTokenHashes[0] = "tampered"
	first.Email = "tampered@x.com"

	second, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, second.RefreshTokenHashes)
	assert.Equal(t, "clone@x.com", second.Email)
}

func TestMemoryRepository_List(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()
	seedRepoUser(t, repo, "one@x.com")
	seedRepoUser(t, repo, "two@x.com")
	seedRepoUser(t, repo, "three@x.com")

	users, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	rest, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	empty, err := repo.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepository_UpdateFields(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()
	user := seedRepoUser(t, repo, "update@x.com")

	token := "reset-token"
	changed, err := repo.UpdateFields(ctx, user.ID, UserUpdate{ResetToken: &token})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateFields(ctx, user.ID, UserUpdate{ClearResetToken: true})
	require.NoError(t, err)
	assert.True(t, changed)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetExpiry)

	changed, err = repo.UpdateFields(ctx, "missing", UserUpdate{ClearResetToken: true})
	require.NoError(t, err)
	assert.False(t, changed)
}
