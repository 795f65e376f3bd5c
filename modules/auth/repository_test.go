package auth

import (
	"context"
	"testing"

	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	user := &domain.User{ID: "id-1", Username: "u1", Email: "u1@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	byName, err := repo.FindByUsername(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byName.ID)
	assert.Nil(t, byName.RefreshTokenHash)

	byID, err := repo.FindByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", byID.Username)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.FindByUsername(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "id-1", Username: "u1", Email: "a@x.com", PasswordHash: "h"}))

	err := repo.Create(ctx, &domain.User{ID: "id-2", Username: "u1", Email: "b@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUserRepository_UpdateRefreshHash(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "id-1", Username: "u1", Email: "a@x.com", PasswordHash: "h"}))

	hash := "refresh-hash"
	require.NoError(t, repo.UpdateRefreshHash(ctx, "id-1", &hash))

	user, err := repo.FindByID(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, user.RefreshTokenHash)
	assert.Equal(t, hash, *user.RefreshTokenHash)

	require.NoError(t, repo.UpdateRefreshHash(ctx, "id-1", nil))
	user, err = repo.FindByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Nil(t, user.RefreshTokenHash)

	// Missing users are not an error.
	assert.NoError(t, repo.UpdateRefreshHash(ctx, "missing", nil))
}

func TestUserRepository_RotateRefreshHash(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	current := "hash-a"
	require.NoError(t, repo.Create(ctx, &domain.User{
		ID: "id-1", Username: "u1", Email: "a@x.com", PasswordHash: "h", RefreshTokenHash: &current,
	}))

	ok, err := repo.RotateRefreshHash(ctx, "id-1", "hash-a", "hash-b")
	require.NoError(t, err)
	assert.True(t, ok)

	// The old hash no longer matches.
	ok, err = repo.RotateRefreshHash(ctx, "id-1", "hash-a", "hash-c")
	require.NoError(t, err)
	assert.False(t, ok)

	user, err := repo.FindByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-b", *user.RefreshTokenHash)

	// A cleared session never rotates.
	require.NoError(t, repo.UpdateRefreshHash(ctx, "id-1", nil))
	ok, err = repo.RotateRefreshHash(ctx, "id-1", "hash-b", "hash-d")
	require.NoError(t, err)
	assert.False(t, ok)
}
